package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/migratory/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <original> <transformed>",
	Short: "Diff two files",
	Long: `Compute the line-level diff between two files and print the unified
patch with change statistics.

With --context, the line view is printed instead, with unchanged runs
beyond the given number of lines around each change collapsed into
ellipsis markers.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var diffContextLines int

func init() {
	diffCmd.Flags().IntVarP(&diffContextLines, "context", "c", -1, "context lines to keep around changes (-1 prints the unified patch)")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	original, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	transformed, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}

	d := diff.Compute(string(original), string(transformed))

	if diffContextLines >= 0 {
		for _, line := range diff.WithContext(string(original), string(transformed), diffContextLines) {
			fmt.Println(renderDiffLine(line))
		}
	} else {
		fmt.Print(d.Unified)
	}

	stats := d.Stats()
	fmt.Printf("%d added, %d removed, %d unchanged\n", stats.Added, stats.Removed, stats.Unchanged)
	return nil
}

func renderDiffLine(line diff.Line) string {
	switch line.Type {
	case diff.LineAdded:
		return "+ " + line.Content
	case diff.LineRemoved:
		return "- " + line.Content
	default:
		return "  " + line.Content
	}
}
