package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/usecase/scaffold"
)

func newCommand(sess *session) *cobra.Command {
	var (
		dir          string
		title        string
		force        bool
		listSections bool
	)

	cmd := &cobra.Command{
		Use:   "new <platform>",
		Short: "Scaffold a new best-practices guide",
		Long: "new renders the guide template into <slug>-best-practices.md so\n" +
			"every guide starts with the sections the lint rules expect.",
		Args: func(cmd *cobra.Command, args []string) error {
			if listSections {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if listSections {
				for _, section := range scaffold.Sections() {
					if _, err := fmt.Fprintln(out, section); err != nil {
						return err
					}
				}
				return nil
			}

			target := dir
			if target == "" {
				target = sess.cfg.Corpus.Root
			}

			result, err := scaffold.New(afero.NewOsFs(), nil).Create(scaffold.Request{
				Platform: args[0],
				Dir:      target,
				Title:    title,
				Force:    force,
				Index:    sess.cfg.Corpus.Index,
			})
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintf(out, "Created %s\n", result.Path); err != nil {
				return err
			}
			if result.IndexFound && !result.IndexLinked {
				_, err = fmt.Fprintf(out, "Note: %s does not reference the new guide yet; add a link or the next lint run will flag it.\n",
					sess.cfg.Corpus.Index)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory the guide is written into (default: corpus root)")
	cmd.Flags().StringVar(&title, "title", "", "Guide title (default: \"<Platform> Best Practices\")")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing guide file")
	cmd.Flags().BoolVar(&listSections, "list-sections", false, "Print the template's section headings and exit")

	return cmd
}
