package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

func lintCommand(deps Dependencies, sess *session) *cobra.Command {
	var (
		failOn      string
		changedOnly bool
		baseRef     string
		noBaseline  bool
		onlyRules   []string
		skipRules   []string
		outputDir   string
		formats     []string
		render      string
		workers     int
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "lint [dir]",
		Short: "Lint the corpus once and write reports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormats(formats); err != nil {
				return err
			}
			severity, err := parseFailOn(failOn, sess.cfg)
			if err != nil {
				return err
			}

			dir := corpusDir(args, sess.cfg)
			base := baseRef
			if base == "" {
				base = sess.cfg.Git.Base
			}

			orchestrator, cleanup, err := buildOrchestrator(deps, sess, cmd.OutOrStdout(), dir, runOptions{
				outputDir: outputDir,
				formats:   formats,
				render:    render,
				workers:   workers,
				console:   true,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := orchestrator.Lint(cmd.Context(), lint.LintRequest{
				Dir:         dir,
				ChangedOnly: changedOnly,
				BaseRef:     base,
				FailOn:      severity,
				UseBaseline: sess.cfg.Lint.Baseline && !noBaseline,
				RuleFilter:  onlyRules,
				SkipRules:   skipRules,
				Force:       force,
			})
			if err != nil {
				return err
			}
			if result.Failed {
				return fmt.Errorf("%w: findings at or above severity %s", ErrLintFailed, severity)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&failOn, "fail-on", "", "Severity that fails the run: error, warning, or info (default from config)")
	cmd.Flags().BoolVar(&changedOnly, "changed-only", false, "Lint only documents changed since --base")
	cmd.Flags().StringVar(&baseRef, "base", "", "Git ref changed-only linting diffs against (default from config)")
	cmd.Flags().BoolVar(&noBaseline, "no-baseline", false, "Ignore the stored baseline for this run")
	cmd.Flags().StringSliceVar(&onlyRules, "rules", nil, "Run only these rules")
	cmd.Flags().StringSliceVar(&skipRules, "skip-rules", nil, "Skip these rules")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory report files are written into (default from config)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Report formats to write: markdown, json, sarif (default from config)")
	cmd.Flags().StringVar(&render, "render", "", "Console rendering: auto, always, or never (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent rule evaluations (0 uses config, then GOMAXPROCS)")
	cmd.Flags().BoolVar(&force, "force", false, "Record the run even when nothing changed since the last one")

	return cmd
}
