package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/adapters/tui"
	"github.com/xvierd/mootimer/internal/domain"
)

var (
	startMode    string
	startTaskID  string
	startPick    bool
	startMinutes int
)

// startCmd starts a timer in the selected mode.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a timer (manual, pomodoro, or countdown)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		params := profileParams()
		if startPick {
			var tasks []*domain.Task
			if err := client.Call("task.list", profileParams(), &tasks); err != nil {
				return err
			}
			if len(tasks) == 0 {
				return fmt.Errorf("no tasks to pick from")
			}
			picked := tui.RunTaskPicker(tasks)
			if picked.Aborted {
				return fmt.Errorf("aborted")
			}
			params["task_id"] = picked.Task.ID
		} else if startTaskID != "" {
			params["task_id"] = startTaskID
		}

		var method string
		switch domain.TimerMode(startMode) {
		case domain.ModeManual:
			method = "timer.start_manual"
		case domain.ModePomodoro:
			method = "timer.start_pomodoro"
		case domain.ModeCountdown:
			method = "timer.start_countdown"
			if startMinutes > 0 {
				params["duration_minutes"] = startMinutes
			}
		default:
			return fmt.Errorf("unknown mode %q: must be manual, pomodoro, or countdown", startMode)
		}

		var timer domain.ActiveTimer
		if err := client.Call(method, params, &timer); err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(timer)
		}
		fmt.Printf("▶  Started %s timer in profile %s\n", timer.Mode, timer.ProfileID)
		if timer.TaskTitle != nil {
			fmt.Printf("   Task: %s\n", *timer.TaskTitle)
		}
		if timer.TargetDuration != nil {
			fmt.Printf("   Duration: %s\n", formatSeconds(*timer.TargetDuration))
		}
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile to start the timer in")
	startCmd.Flags().StringVar(&startMode, "mode", "manual", "Timer mode: manual, pomodoro, countdown")
	startCmd.Flags().StringVar(&startTaskID, "task", "", "Task id to associate with the timer")
	startCmd.Flags().BoolVar(&startPick, "pick", false, "Pick the task interactively")
	startCmd.Flags().IntVar(&startMinutes, "minutes", 0, "Countdown length in minutes")
}
