package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vuvur/cli/internal/api"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and modify server settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the server's settings",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value [key=value...]",
	Short: "Update server settings",
	Long: `Update one or more server settings.

Values are parsed as bool or number when possible, otherwise sent as strings.

Examples:
  vuvur settings set zoom_level=3.0
  vuvur settings set show_videos=true page_size=60`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSettingsSet,
}

var settingsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete the server's derived thumbnail/preview cache",
	RunE:  runSettingsCleanup,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCleanupCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.GetSettings(cmd.Context())
	if err != nil {
		return err
	}

	locked := make(map[string]bool, len(resp.LockedKeys))
	for _, key := range resp.LockedKeys {
		locked[key] = true
	}

	keys := make([]string, 0, len(resp.Settings))
	for key := range resp.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		line := fmt.Sprintf("%s = %v", key, resp.Settings[key])
		if locked[key] {
			line += color.YellowString(" (locked)")
		}
		fmt.Println(line)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	settings := api.AppSettings{}
	for _, arg := range args {
		key, raw, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid setting %q, expected key=value", arg)
		}
		settings[key] = parseSettingValue(raw)
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := client.SaveSettings(cmd.Context(), settings); err != nil {
		return err
	}
	color.Green("Saved %d setting(s)", len(settings))
	return nil
}

func runSettingsCleanup(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.CleanCache(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d file(s) deleted)\n", resp.Message, resp.DeletedFiles)
	return nil
}

func parseSettingValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
