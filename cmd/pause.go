package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/domain"
)

// pauseCmd pauses the active timer.
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the active timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		var timer domain.ActiveTimer
		if err := client.Call("timer.pause", profileParams(), &timer); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(timer)
		}
		fmt.Printf("⏸  Paused at %s\n", formatSeconds(timer.ElapsedSeconds))
		return nil
	},
}

func init() {
	pauseCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile whose timer to pause")
}
