package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/domain"
)

// resumeCmd resumes a paused timer.
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		var timer domain.ActiveTimer
		if err := client.Call("timer.resume", profileParams(), &timer); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(timer)
		}
		fmt.Printf("▶  Resumed at %s\n", formatSeconds(timer.ElapsedSeconds))
		return nil
	},
}

func init() {
	resumeCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile whose timer to resume")
}
