package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/adapters/tui"
	"github.com/xvierd/mootimer/internal/config"
)

// tuiCmd opens the live timer view.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the live timer view",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		profileID := profileFlag
		if profileID == "" {
			var cfg config.Config
			if err := client.Call("config.get", nil, &cfg); err != nil {
				return err
			}
			profileID = cfg.DefaultProfile
		}
		return tui.RunWatch(client, profileID)
	},
}

func init() {
	tuiCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile to watch")
}
