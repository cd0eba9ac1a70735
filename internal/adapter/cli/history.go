package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

func historyCommand(deps Dependencies, sess *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lint runs and their finding deltas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, cleanup, err := buildOrchestrator(deps, sess, cmd.OutOrStdout(), sess.cfg.Corpus.Root, runOptions{
				needsStore: true,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := orchestrator.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs yet.")
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tWHEN\tDOCS\tFINDINGS\tDELTA\tSUPPRESSED\tRESULT\tGIT")
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\t%s\t%s\n",
					shortRunID(entry.Run.RunID),
					entry.Run.CreatedAt.Local().Format("2006-01-02 15:04"),
					entry.Run.DocumentCount,
					entry.Run.FindingCount,
					formatDelta(entry),
					entry.Run.SuppressedCount,
					runResult(entry.Run.Failed),
					gitRef(entry.Run.GitBranch, entry.Run.GitCommit),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", lint.DefaultHistoryLimit, "Number of runs to show")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func formatDelta(entry lint.HistoryEntry) string {
	if !entry.HasPrevious {
		return "-"
	}
	return fmt.Sprintf("%+d", entry.DeltaFindings)
}

func runResult(failed bool) string {
	if failed {
		return "failed"
	}
	return "passed"
}

func gitRef(branch, commit string) string {
	if branch == "" {
		return "-"
	}
	return branch + "@" + commit
}
