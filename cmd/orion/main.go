package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/orion/cmd/orion/commands"
	"github.com/teranos/orion/logger"
	"github.com/teranos/orion/sym"
)

var rootCmd = &cobra.Command{
	Use:   "orion",
	Short: sym.Pulse + " orion - autonomous agent heartbeat",
	Long: sym.Pulse + ` orion - autonomous agent heartbeat.

orion drives a set of prioritized periodic tasks from a single loop. Each
tick produces a pulse that is appended to the pulse log, and a compact
state snapshot lets the pulse counter survive restarts.

Available commands:
  heartbeat - Start the loop, run a single pulse, inspect status and log
  am        - Manage orion configuration ("I am")
  version   - Show build information

Examples:
  orion heartbeat start --interval 30s   # Run the loop in the foreground
  orion heartbeat pulse                  # Run exactly one pulse
  orion heartbeat status --json          # Show scheduler status
  orion am init                          # Write a default ~/.orion/am.toml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs")

	rootCmd.AddCommand(commands.HeartbeatCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
