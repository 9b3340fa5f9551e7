package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vuvur/cli/pkg/secrets"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage known server endpoints",
}

var endpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known endpoints",
	RunE:  runEndpointList,
}

var endpointAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a server endpoint",
	Long: `Add a server endpoint to the known list. The first endpoint added
becomes active automatically. With --token, prompts for an API token and
stores it in the OS keyring.`,
	Args: cobra.ExactArgs(1),
	RunE: runEndpointAdd,
}

var endpointUseCmd = &cobra.Command{
	Use:   "use <url>",
	Short: "Switch the active endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runEndpointUse,
}

var endpointRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove an endpoint and its stored token",
	Args:  cobra.ExactArgs(1),
	RunE:  runEndpointRemove,
}

func init() {
	rootCmd.AddCommand(endpointCmd)
	endpointCmd.AddCommand(endpointListCmd)
	endpointCmd.AddCommand(endpointAddCmd)
	endpointCmd.AddCommand(endpointUseCmd)
	endpointCmd.AddCommand(endpointRemoveCmd)

	endpointAddCmd.Flags().BoolP("token", "t", false, "Prompt for an API token for this endpoint")
}

func runEndpointList(cmd *cobra.Command, args []string) error {
	urls, err := cfgStore.Endpoints()
	if err != nil {
		return err
	}
	active, err := cfgStore.ActiveEndpoint()
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		fmt.Println("No endpoints configured. Add one with 'vuvur endpoint add <url>'.")
		return nil
	}
	for _, url := range urls {
		if url == active {
			color.Green("* %s", url)
		} else {
			fmt.Printf("  %s\n", url)
		}
	}
	return nil
}

func runEndpointAdd(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(args[0], "/")
	withToken, _ := cmd.Flags().GetBool("token")

	if withToken {
		fmt.Print("API token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		if err := secrets.SetEndpointToken(url, string(raw)); err != nil {
			return err
		}
	}

	if err := cfgStore.AddEndpoint(url); err != nil {
		return err
	}

	active, err := cfgStore.ActiveEndpoint()
	if err != nil {
		return err
	}
	if active == "" {
		if err := cfgStore.SetActiveEndpoint(url); err != nil {
			return err
		}
		color.Green("Added %s (now active)", url)
		return nil
	}
	color.Green("Added %s", url)
	return nil
}

func runEndpointUse(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(args[0], "/")
	if err := cfgStore.SetActiveEndpoint(url); err != nil {
		return err
	}
	color.Green("Active endpoint is now %s", url)
	return nil
}

func runEndpointRemove(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(args[0], "/")
	if err := cfgStore.RemoveEndpoint(url); err != nil {
		return err
	}
	if err := secrets.DeleteEndpointToken(url); err != nil {
		logger.Warn().Err(err).Msg("failed to remove stored token")
	}
	color.Green("Removed %s", url)
	return nil
}
