package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/rules"
)

func rulesCommand(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the lint rules and their effective state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := rules.NewEngine(rules.Config{
				Index:    sess.cfg.Corpus.Index,
				Settings: ruleSettings(sess.cfg.Rules),
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RULE\tSEVERITY\tENABLED\tSUMMARY")
			for _, meta := range engine.Metas() {
				state := "no"
				if engine.Enabled(meta.ID) {
					state = "yes"
				}
				severity := string(meta.DefaultSeverity)
				if override := sess.cfg.Rules[meta.ID].Severity; override != "" {
					severity = override
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", meta.ID, severity, state, meta.Summary)
			}
			return w.Flush()
		},
	}
}
