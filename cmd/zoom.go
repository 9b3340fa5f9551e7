package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var zoomCmd = &cobra.Command{
	Use:   "zoom [level]",
	Short: "Show or set the display zoom level",
	Long: `Show the persisted display zoom level, or set it.

Zoom is a client-side display multiplier; changing it never refetches the
gallery. Running sessions pick the change up live.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runZoom,
}

func init() {
	rootCmd.AddCommand(zoomCmd)
}

func runZoom(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		zoom, err := cfgStore.ZoomLevel()
		if err != nil {
			return err
		}
		fmt.Printf("%.1f\n", zoom)
		return nil
	}

	zoom, err := strconv.ParseFloat(args[0], 64)
	if err != nil || zoom <= 0 {
		return fmt.Errorf("invalid zoom level %q", args[0])
	}
	if err := cfgStore.SetZoomLevel(zoom); err != nil {
		return err
	}
	color.Green("Zoom level set to %.1f", zoom)
	return nil
}
