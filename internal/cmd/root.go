package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "migratory",
	Short: "Safe execution engine for migration plans",
	Long: `migratory executes pre-authored migration plans against a repository.
Every rewrite runs through a validating pipeline with automatic rollback,
results are diffed and scored, and a run never touches the checkout until
the final file set is explicitly written back.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx, so a delivered interrupt
// cancels in-flight fetch and transformer work.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
