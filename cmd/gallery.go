package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vuvur/cli/pkg/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse the media gallery",
	Long: `Browse the remote gallery with search, sort and group filters.

If the server is still indexing its library, the command waits and shows
scan progress until the gallery becomes available.

Examples:
  vuvur gallery
  vuvur gallery --sort=mod_time --query=cat
  vuvur gallery --group=vacation --pages=3
  vuvur gallery -i`,
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)

	galleryCmd.Flags().StringP("sort", "s", gallery.DefaultSortKey, "Sort key (random, mod_time, path, size)")
	galleryCmd.Flags().StringP("query", "q", "", "Search filter, empty means no filter")
	galleryCmd.Flags().StringP("group", "g", "", "Group tag filter, empty means all groups")
	galleryCmd.Flags().IntP("pages", "p", 1, "Number of pages to load")
	galleryCmd.Flags().BoolP("interactive", "i", false, "Interactive session (next page, search, delete)")
}

func runGallery(cmd *cobra.Command, args []string) error {
	sortKey, _ := cmd.Flags().GetString("sort")
	query, _ := cmd.Flags().GetString("query")
	group, _ := cmd.Flags().GetString("group")
	pages, _ := cmd.Flags().GetInt("pages")
	interactive, _ := cmd.Flags().GetBool("interactive")

	ctl, err := newGalleryController()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// React to endpoint/zoom changes made by another process for as long as
	// this session runs.
	events := cfgStore.Subscribe()
	go ctl.Run(ctx, events)

	if err := ctl.ApplyFilters(ctx, gallery.Filters{
		SortKey:  sortKey,
		Query:    query,
		GroupTag: group,
	}); err != nil {
		return err
	}

	ready, err := waitSettled(ctx, ctl)
	if err != nil {
		return err
	}

	for page := 2; page <= pages && page <= ready.TotalPages; page++ {
		if err := ctl.LoadPage(ctx, page); err != nil {
			return err
		}
		ready, err = waitSettled(ctx, ctl)
		if err != nil {
			return err
		}
	}

	renderReady(ready)

	if interactive {
		return interactiveLoop(ctx, ctl)
	}
	return nil
}

// waitSettled blocks until the session reaches Ready or Failed, printing
// scan progress while the server is still indexing.
func waitSettled(ctx context.Context, ctl *gallery.Controller) (gallery.Ready, error) {
	reported := false
	for {
		switch phase := ctl.Snapshot().(type) {
		case gallery.Ready:
			if reported {
				fmt.Println()
			}
			return phase, nil
		case gallery.Failed:
			if reported {
				fmt.Println()
			}
			return gallery.Ready{}, fmt.Errorf("gallery unavailable: %s", phase.Message)
		case gallery.Scanning:
			fmt.Printf("\rServer is indexing media: %d/%d", phase.Progress, phase.Total)
			reported = true
		}
		select {
		case <-ctx.Done():
			return gallery.Ready{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func renderReady(ready gallery.Ready) {
	header := color.New(color.Bold)
	header.Printf("%s — page %d/%d, %d item(s), zoom %.1fx\n",
		ready.Endpoint, ready.Page, ready.TotalPages, len(ready.Items), ready.ZoomLevel)

	if len(ready.Groups) > 0 {
		chips := make([]string, 0, len(ready.Groups))
		for _, g := range ready.Groups {
			chip := fmt.Sprintf("%s(%d)", g.Tag, g.Count)
			if g.Tag == ready.GroupTag {
				chip = color.GreenString(chip)
			}
			chips = append(chips, chip)
		}
		fmt.Printf("Groups: %s\n", strings.Join(chips, " "))
	}

	for _, item := range ready.Items {
		kind := color.CyanString("img")
		if item.Kind == "video" {
			kind = color.MagentaString("vid")
		}
		dims := "unknown"
		if item.Width > 0 && item.Height > 0 {
			dims = fmt.Sprintf("%dx%d", item.Width, item.Height)
		}
		fmt.Printf("  %6d  %s  %-9s  %s\n", item.ID, kind, dims, item.Path)
	}
}

func interactiveLoop(ctx context.Context, ctl *gallery.Controller) error {
	fmt.Println("\nCommands: n(ext), q(uery) <text>, sort <key>, group <tag>, del <id>, r(efresh), quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		arg := ""
		if len(fields) > 1 {
			arg = strings.Join(fields[1:], " ")
		}

		var err error
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "n", "next":
			if ready, ok := ctl.Snapshot().(gallery.Ready); ok {
				err = ctl.LoadPage(ctx, ready.Page+1)
			}
		case "q", "query":
			err = ctl.ApplySearch(ctx, arg)
		case "sort":
			err = ctl.ApplySort(ctx, arg)
		case "group":
			err = ctl.ApplyGroupFilter(ctx, arg)
		case "r", "refresh":
			err = ctl.Refresh(ctx)
		case "del":
			var id int
			if id, err = strconv.Atoi(arg); err == nil {
				err = ctl.DeleteItem(ctx, id)
			}
		default:
			fmt.Printf("unknown command %q\n", fields[0])
			continue
		}
		if err != nil {
			color.Red("error: %v", err)
			continue
		}

		ready, err := waitSettled(ctx, ctl)
		if err != nil {
			color.Red("%v", err)
			continue
		}
		renderReady(ready)
	}
}
