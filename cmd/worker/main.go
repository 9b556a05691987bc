package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Operator tooling for the portal backend",
	Long: `worker runs maintenance tasks against the portal database and API:
apply schema migrations, expire analyses stuck in pending_analysis, list what is
still pending, and submit a project end to end through the public API.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(pendingCmd())
	rootCmd.AddCommand(submitCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
