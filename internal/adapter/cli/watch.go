package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/adapter/watch"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

func watchCommand(deps Dependencies, sess *session) *cobra.Command {
	var (
		failOn    string
		onlyRules []string
		skipRules []string
		outputDir string
		formats   []string
		render    string
		workers   int
		debounce  time.Duration
		logFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-lint the corpus whenever its files change",
		Long: "watch lints once, then blocks watching the corpus for changes and\n" +
			"re-lints after each burst of edits. Interrupt to stop.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormats(formats); err != nil {
				return err
			}
			severity, err := parseFailOn(failOn, sess.cfg)
			if err != nil {
				return err
			}

			dir := corpusDir(args, sess.cfg)

			// Long sessions tee logs to a rotated file when configured.
			file := logFile
			if file == "" {
				file = sess.cfg.Watch.LogFile
			}
			if file != "" && deps.NewLogger != nil {
				logger, syncFn, err := deps.NewLogger(sess.cfg.Logging.Level, sess.cfg.Logging.Format, file)
				if err != nil {
					return fmt.Errorf("build watch logger: %w", err)
				}
				if sess.syncLogger != nil {
					sess.syncLogger()
				}
				sess.logger = logger
				sess.syncLogger = syncFn
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

			interval := debounce
			if interval == 0 {
				interval = sess.cfg.Watch.Debounce
			}

			agent, err := watch.NewAgent(watch.Config{
				Root:       dir,
				Debounce:   interval,
				IgnoreFile: sess.cfg.Corpus.IgnoreFile,
				Request: lint.LintRequest{
					Dir:         dir,
					FailOn:      severity,
					UseBaseline: sess.cfg.Lint.Baseline,
					RuleFilter:  onlyRules,
					SkipRules:   skipRules,
				},
			}, orchestrator, sess.logger)
			if err != nil {
				return err
			}
			defer agent.Stop()

			// Watch mode never fails on findings; it reports them each cycle
			// and keeps running until interrupted.
			return agent.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&failOn, "fail-on", "", "Severity reported as failing each cycle (default from config)")
	cmd.Flags().StringSliceVar(&onlyRules, "rules", nil, "Run only these rules")
	cmd.Flags().StringSliceVar(&skipRules, "skip-rules", nil, "Skip these rules")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory report files are written into (default from config)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Report formats to write: markdown, json, sarif (default from config)")
	cmd.Flags().StringVar(&render, "render", "", "Console rendering: auto, always, or never (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent rule evaluations (0 uses config, then GOMAXPROCS)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before a re-lint (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Tee logs to this size-rotated file (default from config)")

	return cmd
}
