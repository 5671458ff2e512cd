package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/domain"
)

// stopResult mirrors the timer.stop response.
type stopResult struct {
	Entry    *domain.Entry `json:"entry"`
	Warnings []string      `json:"warnings"`
}

// stopCmd stops the active timer and records its entry.
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active timer and record its entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		var result stopResult
		if err := client.Call("timer.stop", profileParams(), &result); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("⏹  Recorded %s entry, %s\n", result.Entry.Mode, formatSeconds(result.Entry.DurationSeconds))
		for _, warning := range result.Warnings {
			fmt.Printf("   warning: %s\n", warning)
		}
		return nil
	},
}

func init() {
	stopCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile whose timer to stop")
}
