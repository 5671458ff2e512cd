package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// cancelCmd discards the active timer without recording an entry.
var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active timer without recording an entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialClient()
		if err != nil {
			return err
		}
		defer client.Close()

		var raw json.RawMessage
		if err := client.Call("timer.cancel", profileParams(), &raw); err != nil {
			return err
		}

		fmt.Println("✖  Timer cancelled, nothing recorded.")
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVar(&profileFlag, "profile", "", "Profile whose timer to cancel")
}
