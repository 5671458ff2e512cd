// Package cmd provides the mootimer CLI: the root command runs the daemon,
// the subcommands are thin RPC clients against a running daemon.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xvierd/mootimer/internal/adapters/mcp"
	"github.com/xvierd/mootimer/internal/daemon"
)

var (
	// Version info (set at build time via ldflags)
	Version = "dev"

	// Global flags
	socketFlag   string
	logLevelFlag string
	mcpFlag      bool
	noNotifyFlag bool
	jsonOutput   bool
)

// rootCmd runs the daemon when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "mootimer",
	Short: "mootimer - a personal work-timing daemon",
	Long: `mootimer is a work-timing daemon with manual, pomodoro, and countdown
timers, per-profile task lists, and an append-only entry log.

Run "mootimer" with no arguments to start the daemon. The other commands
talk to a running daemon over its unix socket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Daemon socket path (default: from config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&mcpFlag, "mcp", false, "Serve MCP tools on stdio instead of running the daemon")
	rootCmd.Flags().BoolVar(&noNotifyFlag, "no-notify", false, "Disable desktop notifications")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("mootimer\nVersion: {{.Version}}\n")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if mcpFlag {
		return runMCP(cmd.Context())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := daemon.New(daemon.Options{
		SocketPath:    socketFlag,
		LogLevel:      logLevelFlag,
		Notifications: !noNotifyFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("mootimer daemon listening on %s\n", d.SocketPath())
	return d.Run(ctx)
}

// runMCP bridges MCP tool calls on stdio to a running daemon.
func runMCP(ctx context.Context) error {
	client, err := dialClient()
	if err != nil {
		return err
	}
	defer client.Close()

	server := mcp.NewServer(client)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
