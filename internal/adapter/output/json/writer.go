// Package json persists lint reports as machine-readable JSON files.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

// SchemaVersion identifies the report envelope layout. Bump on breaking
// changes so downstream consumers can branch.
const SchemaVersion = "1"

// Writer implements the lint.JSONWriter port.
type Writer struct {
	now func() string
}

// NewWriter creates a new JSON writer with a timestamp supplier.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// envelope wraps the report with a schema version.
type envelope struct {
	SchemaVersion string        `json:"schemaVersion"`
	Report        domain.Report `json:"report"`
}

// Write persists a report to disk as a JSON file and returns its path.
func (w *Writer) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("lint_%s_%s.json", sanitise(filepath.Base(artifact.Report.CorpusDir)), w.now())
	path := filepath.Join(artifact.OutputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create json file: %w", err)
	}
	defer file.Close()

	report := artifact.Report
	report.GeneratedAt = report.GeneratedAt.UTC()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envelope{SchemaVersion: SchemaVersion, Report: report}); err != nil {
		return "", fmt.Errorf("encode report to json: %w", err)
	}

	return path, nil
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
