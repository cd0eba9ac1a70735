// Package markdown renders lint reports as Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

type clock func() string

// Writer renders lint reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown report to disk and returns its path.
func (w *Writer) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("lint_%s_%s.md", sanitise(filepath.Base(artifact.Report.CorpusDir)), w.now())
	path := filepath.Join(artifact.OutputDir, filename)

	if err := os.WriteFile(path, []byte(buildContent(artifact.Report)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(report domain.Report) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Documentation Lint Report\n\n")
	builder.WriteString(fmt.Sprintf("- Run: %s\n", report.RunID))
	builder.WriteString(fmt.Sprintf("- Generated: %s\n", report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z")))
	builder.WriteString(fmt.Sprintf("- Tool: %s %s\n", report.Tool.Name, report.Tool.Version))
	builder.WriteString(fmt.Sprintf("- Corpus: %s\n", report.CorpusDir))
	if report.GitBranch != "" {
		builder.WriteString(fmt.Sprintf("- Branch: %s (%s)\n", report.GitBranch, report.GitCommit))
	}
	builder.WriteString(fmt.Sprintf("- Documents: %d\n", report.DocumentCount))
	builder.WriteString(fmt.Sprintf("- Fail on: %s\n\n", caser.String(string(report.FailOn))))

	builder.WriteString("## Summary\n\n")
	builder.WriteString("| Severity | Count |\n")
	builder.WriteString("|---|---|\n")
	counts := severityCounts(report.Findings)
	for _, severity := range []domain.Severity{domain.SeverityError, domain.SeverityWarning, domain.SeverityInfo} {
		builder.WriteString(fmt.Sprintf("| %s | %d |\n", caser.String(string(severity)), counts[severity]))
	}
	builder.WriteString(fmt.Sprintf("| Suppressed | %d |\n\n", report.SuppressedCount))

	if len(report.Findings) == 0 {
		builder.WriteString("No findings reported.\n")
		return builder.String()
	}

	builder.WriteString("## Findings\n\n")
	currentFile := ""
	for _, finding := range report.Findings {
		file := finding.File
		if file == "" {
			file = "(corpus)"
		}
		if file != currentFile {
			builder.WriteString(fmt.Sprintf("### %s\n\n", file))
			currentFile = file
		}
		builder.WriteString(fmt.Sprintf("- %s `%s` (%s): %s",
			lineRef(finding), finding.Rule, caser.String(string(finding.Severity)), finding.Message))
		if finding.Suppressed {
			builder.WriteString(" _(suppressed)_")
		}
		builder.WriteString("\n")
		if finding.Suggestion != "" {
			builder.WriteString(fmt.Sprintf("  - Suggestion: %s\n", finding.Suggestion))
		}
	}

	return builder.String()
}

func severityCounts(findings []domain.Finding) map[domain.Severity]int {
	counts := make(map[domain.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// lineRef formats the finding's line range. Line zero means the finding
// applies to the whole document.
func lineRef(f domain.Finding) string {
	switch {
	case f.LineStart == 0:
		return "whole file"
	case f.LineEnd > f.LineStart:
		return fmt.Sprintf("L%d-L%d", f.LineStart, f.LineEnd)
	default:
		return fmt.Sprintf("L%d", f.LineStart)
	}
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
