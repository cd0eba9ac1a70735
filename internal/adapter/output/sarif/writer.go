// Package sarif persists lint reports in SARIF 2.1.0 so CI systems can
// ingest findings as code-scanning results.
package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// RuleDescriptor describes one rule for the tool.driver.rules block.
type RuleDescriptor struct {
	ID      string
	Summary string
}

// Writer implements the lint.SARIFWriter port.
type Writer struct {
	now   func() string
	rules []RuleDescriptor
}

// NewWriter creates a new SARIF writer. The rule descriptors become the
// driver's rule catalog; findings reference them by ruleId.
func NewWriter(now func() string, rules []RuleDescriptor) *Writer {
	return &Writer{now: now, rules: rules}
}

// Write persists a report to disk as a SARIF file and returns its path.
func (w *Writer) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("lint_%s_%s.sarif", sanitise(filepath.Base(artifact.Report.CorpusDir)), w.now())
	path := filepath.Join(artifact.OutputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(w.convert(artifact.Report)); err != nil {
		return "", fmt.Errorf("encode report to sarif: %w", err)
	}

	return path, nil
}

func (w *Writer) convert(report domain.Report) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(report.Findings))
	for _, finding := range report.Findings {
		results = append(results, convertFinding(finding))
	}

	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": schemaURI,
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":           report.Tool.Name,
						"version":        report.Tool.Version,
						"informationUri": "https://github.com/bkyoung/doc-reviewer",
						"rules":          w.ruleCatalog(),
					},
				},
				"results": results,
				"properties": map[string]interface{}{
					"runId":           report.RunID,
					"corpusDir":       report.CorpusDir,
					"documentCount":   report.DocumentCount,
					"suppressedCount": report.SuppressedCount,
					"failOn":          string(report.FailOn),
					"failed":          report.Failed,
				},
			},
		},
	}
}

func (w *Writer) ruleCatalog() []map[string]interface{} {
	rules := make([]map[string]interface{}, 0, len(w.rules))
	for _, rule := range w.rules {
		rules = append(rules, map[string]interface{}{
			"id":               rule.ID,
			"shortDescription": map[string]interface{}{"text": rule.Summary},
		})
	}
	return rules
}

func convertFinding(finding domain.Finding) map[string]interface{} {
	// SARIF requires non-empty message text.
	messageText := finding.Message
	if messageText == "" {
		messageText = "No description provided"
	}

	result := map[string]interface{}{
		"ruleId": finding.Rule,
		"level":  convertSeverity(finding.Severity),
		"message": map[string]interface{}{
			"text": messageText,
		},
		"partialFingerprints": map[string]interface{}{
			"docReviewerFingerprint/v1": string(finding.Fingerprint()),
		},
	}

	if finding.File != "" {
		physicalLocation := map[string]interface{}{
			"artifactLocation": map[string]interface{}{
				"uri": finding.File,
			},
		}
		// Line zero means a whole-file finding; the artifact location alone
		// carries it. Fabricating line 1 would mislead annotation consumers.
		if finding.LineStart >= 1 {
			endLine := finding.LineEnd
			if endLine < finding.LineStart {
				endLine = finding.LineStart
			}
			physicalLocation["region"] = map[string]interface{}{
				"startLine": finding.LineStart,
				"endLine":   endLine,
			}
		}
		result["locations"] = []map[string]interface{}{
			{"physicalLocation": physicalLocation},
		}
	}

	if finding.Suggestion != "" {
		result["properties"] = map[string]interface{}{
			"suggestion": finding.Suggestion,
		}
	}

	if finding.Suppressed {
		result["suppressions"] = []map[string]interface{}{
			{"kind": "external", "justification": "accepted in baseline"},
		}
	}

	return result
}

// convertSeverity maps finding severities to SARIF levels.
func convertSeverity(severity domain.Severity) string {
	switch severity {
	case domain.SeverityError:
		return "error"
	case domain.SeverityWarning:
		return "warning"
	case domain.SeverityInfo:
		return "note"
	default:
		return "warning"
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
