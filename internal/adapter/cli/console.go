package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

// Console renders the run summary to the terminal. It implements the
// lint.Console port.
type Console struct {
	out    io.Writer
	styled bool
}

// NewConsole builds a console for the given render mode: "always" styles
// unconditionally, "never" prints plain markdown, and "auto" styles only
// when stdout is a terminal and NO_COLOR is unset.
func NewConsole(out io.Writer, render string) *Console {
	styled := false
	switch render {
	case "always":
		styled = true
	case "never":
		styled = false
	default:
		styled = lint.IsOutputTerminal() && os.Getenv("NO_COLOR") == ""
	}
	return &Console{out: out, styled: styled}
}

// Print renders the report summary.
func (c *Console) Print(report domain.Report) error {
	summary := buildSummary(report)
	if c.styled {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			if rendered, renderErr := renderer.Render(summary); renderErr == nil {
				_, err = fmt.Fprint(c.out, rendered)
				return err
			}
		}
		// Styled rendering failed; plain output still tells the story.
	}
	_, err := fmt.Fprint(c.out, summary)
	return err
}

func buildSummary(report domain.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Lint Summary\n\n")
	fmt.Fprintf(&b, "Corpus `%s`: %d documents, run `%s`", report.CorpusDir, report.DocumentCount, report.RunID)
	if report.GitBranch != "" {
		fmt.Fprintf(&b, " (%s@%s)", report.GitBranch, report.GitCommit)
	}
	b.WriteString("\n\n")

	if len(report.Findings) == 0 {
		b.WriteString("No findings. Corpus is clean.\n")
		return b.String()
	}

	counts := domain.CountBySeverity(report.Findings)
	fmt.Fprintf(&b, "**%d findings** (%d errors, %d warnings, %d info)",
		len(report.Findings),
		counts[domain.SeverityError],
		counts[domain.SeverityWarning],
		counts[domain.SeverityInfo],
	)
	if report.SuppressedCount > 0 {
		fmt.Fprintf(&b, ", %d suppressed", report.SuppressedCount)
	}
	b.WriteString("\n\n")

	var currentFile string
	for _, f := range report.Findings {
		if f.File != currentFile {
			currentFile = f.File
			fmt.Fprintf(&b, "`%s`\n\n", f.File)
		}
		fmt.Fprintf(&b, "- %s [%s] %s %s", severityLabel(f.Severity), f.Rule, lineRef(f), f.Message)
		if f.Suppressed {
			b.WriteString(" (suppressed)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if report.Failed {
		fmt.Fprintf(&b, "**FAILED**: findings at or above severity %s (fail-on threshold)\n", report.FailOn)
	} else {
		fmt.Fprintf(&b, "Passed: no unsuppressed findings at or above severity %s\n", report.FailOn)
	}
	return b.String()
}

func severityLabel(s domain.Severity) string {
	return strings.ToUpper(string(s))
}

func lineRef(f domain.Finding) string {
	switch {
	case f.LineStart == 0:
		return "(whole file)"
	case f.LineEnd > f.LineStart:
		return fmt.Sprintf("L%d-L%d", f.LineStart, f.LineEnd)
	default:
		return fmt.Sprintf("L%d", f.LineStart)
	}
}
