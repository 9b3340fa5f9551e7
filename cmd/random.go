package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Fetch randomly selected media items",
	Long: `Fetch a handful of randomly selected items and print their preview URLs.

Examples:
  vuvur random
  vuvur random --count=10`,
	RunE: runRandom,
}

func init() {
	rootCmd.AddCommand(randomCmd)

	randomCmd.Flags().IntP("count", "n", 3, "Number of items to fetch")
}

func runRandom(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	items, err := client.GetRandomMedia(cmd.Context(), count)
	if err != nil {
		return err
	}

	for _, item := range items {
		url := client.PreviewURL(item)
		if item.Kind == "video" {
			url = client.StreamURL(item)
		}
		fmt.Printf("%6d  %-40s  %s\n", item.ID, item.Path, color.BlueString(url))
	}
	return nil
}
