package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/migratory/internal/config"
	"github.com/felixgeelhaar/migratory/internal/fetch"
	"github.com/felixgeelhaar/migratory/internal/lock"
	"github.com/felixgeelhaar/migratory/internal/log"
	"github.com/felixgeelhaar/migratory/internal/orchestrator"
	"github.com/felixgeelhaar/migratory/internal/plan"
	"github.com/felixgeelhaar/migratory/internal/progress"
	"github.com/felixgeelhaar/migratory/internal/transformer"
	"github.com/felixgeelhaar/migratory/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a migration plan against a repository",
	Long: `Execute the selected tasks of a migration plan against a local
repository checkout.

The run fetches a snapshot of the repository, takes the repository lock,
and drives every task through the transformation pipeline. All changes
stay in memory; pass --write to apply the resulting files back to the
checkout once the run finishes.

Transformers are registered by embedding applications. A plain CLI run
executes the full plan lifecycle and reports every task that found no
transformer as skipped, which makes it a dry-run harness for plan and
repository wiring.`,
	RunE: runRun,
}

var (
	runConfigPath string
	runPlanPath   string
	runRepoPath   string
	runRepoSlug   string
	runRepoRef    string
	runTasks      []string
	runPreserve   bool
	runWrite      bool
	runJobID      string
	runLogLevel   string
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "config file (YAML, merged with MIGRATORY_ env vars)")
	runCmd.Flags().StringVar(&runPlanPath, "plan", "", "migration plan file (YAML or JSON)")
	runCmd.Flags().StringVar(&runRepoPath, "repo", "", "path to the local repository checkout")
	runCmd.Flags().StringVar(&runRepoSlug, "slug", "", "repository identity for locking (defaults to the path)")
	runCmd.Flags().StringVar(&runRepoRef, "ref", "", "repository revision, recorded for fetchers that understand one")
	runCmd.Flags().StringSliceVar(&runTasks, "task", nil, "task id to execute (repeatable, defaults to every task in the plan)")
	runCmd.Flags().BoolVar(&runPreserve, "preserve-formatting", false, "ask transformers to preserve original formatting")
	runCmd.Flags().BoolVar(&runWrite, "write", false, "write the resulting files back to the repository")
	runCmd.Flags().StringVar(&runJobID, "job-id", "", "job identifier (assigned when empty)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Plan == "" {
		return fmt.Errorf("a migration plan is required (--plan or config file)")
	}
	if cfg.Repo.Path == "" {
		return fmt.Errorf("a repository path is required (--repo or config file)")
	}

	logger := log.New(log.Config{
		Level:          log.ParseLevel(cfg.Log.Level),
		Format:         log.ParseFormat(cfg.Log.Format),
		Output:         log.OutputStderr(),
		ServiceName:    "migratory",
		ServiceVersion: version.Version,
	})

	p, err := plan.Load(cfg.Plan)
	if err != nil {
		return err
	}

	selected := cfg.Tasks
	if len(selected) == 0 {
		for _, task := range p.Tasks() {
			selected = append(selected, task.ID)
		}
	}

	locks := lock.New(lockOptions(cfg)...)
	orch, err := orchestrator.New(orchestrator.Config{
		Registry: transformer.NewRegistry(),
		Fetcher:  &fetch.FS{MaxFileSize: cfg.Fetch.MaxFileSize, Exclude: cfg.Fetch.Exclude},
		Locks:    locks,
		Sink:     progress.NewLogSink(logger),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	repo := fetch.Locator{Slug: cfg.Repo.Slug, Path: cfg.Repo.Path, Ref: cfg.Repo.Ref}
	opts := transformer.Options{
		PreserveFormatting: cfg.PreserveFormatting,
		TargetFramework:    cfg.TargetFramework,
	}

	result, err := orch.Execute(cmd.Context(), runJobID, repo, p, selected, opts)
	if err != nil {
		return err
	}

	fmt.Print(formatRunSummary(result))

	if runWrite && len(result.Files) > 0 {
		if err := writeFiles(cfg.Repo.Path, result.Files); err != nil {
			return err
		}
		fmt.Printf("\nwrote %d files to %s\n", len(result.Files), cfg.Repo.Path)
	}

	if !result.Success {
		return fmt.Errorf("%d of %d tasks failed", result.Summary.TasksFailed,
			result.Summary.TasksCompleted+result.Summary.TasksFailed+result.Summary.TasksSkipped)
	}
	return nil
}

// loadRunConfig merges the config file, environment, and flags. An explicitly
// set flag wins over both.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("plan") {
		cfg.Plan = runPlanPath
	}
	if cmd.Flags().Changed("repo") {
		cfg.Repo.Path = runRepoPath
	}
	if cmd.Flags().Changed("slug") {
		cfg.Repo.Slug = runRepoSlug
	}
	if cmd.Flags().Changed("ref") {
		cfg.Repo.Ref = runRepoRef
	}
	if cmd.Flags().Changed("task") {
		cfg.Tasks = runTasks
	}
	if cmd.Flags().Changed("preserve-formatting") {
		cfg.PreserveFormatting = runPreserve
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = runLogLevel
	}
	return cfg, nil
}

func lockOptions(cfg config.Config) []lock.Option {
	if cfg.Lock.TTL > 0 {
		return []lock.Option{lock.WithTTL(cfg.Lock.TTL)}
	}
	return nil
}

// formatRunSummary renders the run result as plain text.
func formatRunSummary(result *orchestrator.Result) string {
	s := result.Summary
	out := fmt.Sprintf("migration %s: job %s\n", statusWord(result.Success), result.JobID)
	out += fmt.Sprintf("  files changed:   %d\n", s.FilesChanged)
	out += fmt.Sprintf("  lines added:     %d\n", s.LinesAdded)
	out += fmt.Sprintf("  lines removed:   %d\n", s.LinesRemoved)
	out += fmt.Sprintf("  tasks completed: %d\n", s.TasksCompleted)
	out += fmt.Sprintf("  tasks failed:    %d\n", s.TasksFailed)
	out += fmt.Sprintf("  tasks skipped:   %d\n", s.TasksSkipped)
	if s.EstimatedTimeSaved != "" && s.EstimatedTimeSaved != "0m" {
		out += fmt.Sprintf("  est. time saved: %s\n", s.EstimatedTimeSaved)
	}

	if len(s.Errors) > 0 {
		out += "\nerrors:\n"
		for _, e := range s.Errors {
			out += "  - " + e + "\n"
		}
	}
	if len(s.Warnings) > 0 {
		out += "\nwarnings:\n"
		for _, w := range s.Warnings {
			out += "  - " + w + "\n"
		}
	}
	if len(s.ManualReviewNeeded) > 0 {
		out += "\nmanual review needed:\n"
		for _, path := range s.ManualReviewNeeded {
			out += "  - " + path + "\n"
		}
	}
	return out
}

func statusWord(success bool) string {
	if success {
		return "succeeded"
	}
	return "finished with failures"
}

// writeFiles applies the final file map to the checkout, creating parent
// directories as needed.
func writeFiles(root string, files map[string]string) error {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		target := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(target, []byte(files[path]), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
