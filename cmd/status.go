package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/services"
)

// statusCmd shows the active timer and today's totals.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active timer and today's totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		var timer *domain.ActiveTimer
		if err := client.Call("timer.get_by_profile", profileParams(), &timer); err != nil {
			return err
		}
		var stats services.Stats
		if err := client.Call("entry.stats_today", profileParams(), &stats); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(map[string]any{"timer": timer, "today": stats})
		}

		if timer == nil {
			fmt.Println("No active timer.")
		} else {
			fmt.Printf("⏱  %s timer %s\n", timer.Mode, timer.State)
			if timer.TaskTitle != nil {
				fmt.Printf("   Task: %s\n", *timer.TaskTitle)
			}
			fmt.Printf("   Elapsed: %s\n", formatSeconds(timer.ElapsedSeconds))
			if timer.Mode == domain.ModePomodoro && timer.Pomodoro != nil {
				fmt.Printf("   Phase: %s (session %d/%d)\n",
					strings.ReplaceAll(string(timer.Pomodoro.Phase), "_", " "),
					timer.Pomodoro.CurrentSession,
					timer.Pomodoro.Config.SessionsUntilLongBreak)
			}
		}

		fmt.Printf("\n📊 Today: %d entries, %s tracked", stats.TotalEntries, formatSeconds(stats.TotalDurationSeconds))
		if stats.PomodoroCount > 0 {
			fmt.Printf(" (%d pomodoro)", stats.PomodoroCount)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile to inspect (default: configured default)")
}
