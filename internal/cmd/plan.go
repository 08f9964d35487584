package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/migratory/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect migration plans",
	Long: `Validate and inspect migration plan files.

Use 'migratory plan validate' to check a plan's structure.
Use 'migratory plan show' to print its phases and tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var planValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a migration plan file",
	Long: `Validate a migration plan file: phase and task structure, unique task
ids, risk and category values, and dependency references including cycles.`,
	RunE: runPlanValidate,
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a migration plan",
	Long:  `Print the phases and tasks of a migration plan in execution order.`,
	RunE:  runPlanShow,
}

var planIn string

func init() {
	planValidateCmd.Flags().StringVar(&planIn, "in", "", "plan file (YAML or JSON)")
	_ = planValidateCmd.MarkFlagRequired("in")
	planShowCmd.Flags().StringVar(&planIn, "in", "", "plan file (YAML or JSON)")
	_ = planShowCmd.MarkFlagRequired("in")

	planCmd.AddCommand(planValidateCmd)
	planCmd.AddCommand(planShowCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanValidate(cmd *cobra.Command, args []string) error {
	p, err := plan.Load(planIn)
	if err != nil {
		return err
	}

	hash, err := plan.Hash(p)
	if err != nil {
		return err
	}

	fmt.Printf("plan %q is valid: %d phases, %d tasks\n", p.Name, len(p.Phases), p.TaskCount())
	fmt.Printf("hash: %s\n", hash)
	return nil
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	p, err := plan.Load(planIn)
	if err != nil {
		return err
	}

	fmt.Print(formatPlan(p))
	return nil
}

// formatPlan renders a plan as indented plain text, one block per phase.
func formatPlan(p *plan.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d phases, %d tasks)\n", p.Name, len(p.Phases), p.TaskCount())

	for _, phase := range p.SortedPhases() {
		fmt.Fprintf(&b, "\nphase %d: %s", phase.Order, phase.Name)
		if phase.Risk != "" {
			fmt.Fprintf(&b, " [risk: %s]", phase.Risk)
		}
		b.WriteString("\n")

		for _, task := range phase.Tasks {
			fmt.Fprintf(&b, "  %-24s %-18s %-7s %s\n", task.ID, task.Category, task.Risk, task.Description)
			if len(task.AffectedFiles) > 0 {
				fmt.Fprintf(&b, "  %-24s files: %s\n", "", strings.Join(task.AffectedFiles, ", "))
			}
			if len(task.DependsOn) > 0 {
				fmt.Fprintf(&b, "  %-24s after: %s\n", "", strings.Join(task.DependsOn, ", "))
			}
		}
	}
	return b.String()
}
