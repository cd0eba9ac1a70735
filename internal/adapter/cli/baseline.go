package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

func baselineCommand(deps Dependencies, sess *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage the accepted-findings baseline",
		Long: "The baseline records findings the team has accepted. Baselined\n" +
			"findings still appear in reports, marked suppressed, but never\n" +
			"fail a run.",
	}
	cmd.AddCommand(baselineUpdateCommand(deps, sess))
	cmd.AddCommand(baselineClearCommand(deps, sess))
	return cmd
}

func baselineUpdateCommand(deps Dependencies, sess *session) *cobra.Command {
	var (
		onlyRules []string
		skipRules []string
	)

	cmd := &cobra.Command{
		Use:   "update [dir]",
		Short: "Re-lint the corpus and accept every current finding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := corpusDir(args, sess.cfg)

			orchestrator, cleanup, err := buildOrchestrator(deps, sess, cmd.OutOrStdout(), dir, runOptions{
				needsStore: true,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := orchestrator.Baseline(cmd.Context(), lint.BaselineRequest{
				Dir:        dir,
				RuleFilter: onlyRules,
				SkipRules:  skipRules,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d entries from %d documents\n",
				result.Entries, result.DocumentCount)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&onlyRules, "rules", nil, "Baseline only these rules")
	cmd.Flags().StringSliceVar(&skipRules, "skip-rules", nil, "Skip these rules")
	return cmd
}

func baselineClearCommand(deps Dependencies, sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every baseline entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, cleanup, err := buildOrchestrator(deps, sess, cmd.OutOrStdout(), sess.cfg.Corpus.Root, runOptions{
				needsStore: true,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			if err := orchestrator.ClearBaseline(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Baseline cleared.")
			return err
		},
	}
}
