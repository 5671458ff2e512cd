package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xvierd/mootimer/internal/config"
	"github.com/xvierd/mootimer/internal/rpc"
)

// profileFlag selects the profile for client commands; empty means the
// daemon's configured default profile.
var profileFlag string

// resolveSocket picks the daemon socket: --socket beats the config document.
func resolveSocket() (string, error) {
	if socketFlag != "" {
		return socketFlag, nil
	}
	store, err := config.NewStore()
	if err != nil {
		return "", err
	}
	cfg, err := store.Load()
	if err != nil {
		return "", err
	}
	return cfg.Daemon.SocketPath, nil
}

// dialClient connects to the running daemon.
func dialClient() (*rpc.Client, error) {
	path, err := resolveSocket()
	if err != nil {
		return nil, err
	}
	client, err := rpc.Dial(path)
	if err != nil {
		return nil, fmt.Errorf("cannot reach the daemon at %s (is it running?): %w", path, err)
	}
	return client, nil
}

// profileParams builds the common profile_id parameter object.
func profileParams() map[string]any {
	params := map[string]any{}
	if profileFlag != "" {
		params["profile_id"] = profileFlag
	}
	return params
}

// printJSON pretty-prints a result to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

// formatSeconds renders whole seconds as "1h 02m" or "12m 05s".
func formatSeconds(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}
