package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a media item on the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid media id %q", args[0])
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := client.DeleteMedia(cmd.Context(), id); err != nil {
		return err
	}
	color.Green("Deleted item %d", id)
	return nil
}
