package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show the server's media scan status",
	Long: `Show whether the server's background library scan is still running.

With --wait, keeps polling until the scan completes.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolP("wait", "w", false, "Poll until the scan completes")
	scanCmd.Flags().Duration("interval", 2*time.Second, "Poll interval used with --wait")
}

func runScan(cmd *cobra.Command, args []string) error {
	wait, _ := cmd.Flags().GetBool("wait")
	interval, _ := cmd.Flags().GetDuration("interval")

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	for {
		status, err := client.GetScanStatus(cmd.Context())
		if err != nil {
			if !wait {
				return err
			}
			// Transient failures don't abort the wait.
			logger.Debug().Err(err).Msg("scan status poll failed, retrying")
		} else if !status.Scanning {
			if wait {
				fmt.Println()
			}
			color.Green("Scan complete (%d items indexed)", status.Total)
			return nil
		} else if !wait {
			fmt.Printf("Scanning: %d/%d\n", status.Progress, status.Total)
			return nil
		} else {
			fmt.Printf("\rScanning: %d/%d", status.Progress, status.Total)
		}

		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(interval):
		}
	}
}
