package sarif

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

func fixedClock() string {
	return "20260115T120000Z"
}

func testRules() []RuleDescriptor {
	return []RuleDescriptor{
		{ID: "fence-closure", Summary: "Every fenced code block must be closed"},
		{ID: "heading-increment", Summary: "Heading levels step down one at a time"},
	}
}

func writeAndDecode(t *testing.T, report domain.Report) map[string]interface{} {
	t.Helper()
	writer := NewWriter(fixedClock, testRules())
	path, err := writer.Write(context.Background(), domain.ReportArtifact{
		OutputDir: t.TempDir(),
		Report:    report,
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &doc))
	return doc
}

func firstRun(t *testing.T, doc map[string]interface{}) map[string]interface{} {
	t.Helper()
	runs, ok := doc["runs"].([]interface{})
	require.True(t, ok)
	require.Len(t, runs, 1)
	return runs[0].(map[string]interface{})
}

func TestWriteEmitsSARIFEnvelope(t *testing.T) {
	report := domain.Report{
		RunID:       "run-1-abc",
		GeneratedAt: time.Now(),
		Tool:        domain.ToolInfo{Name: "doc-reviewer", Version: "v1.0.0"},
		CorpusDir:   "guides",
		FailOn:      domain.SeverityError,
	}

	doc := writeAndDecode(t, report)
	assert.Equal(t, "2.1.0", doc["version"])

	run := firstRun(t, doc)
	driver := run["tool"].(map[string]interface{})["driver"].(map[string]interface{})
	assert.Equal(t, "doc-reviewer", driver["name"])
	rules := driver["rules"].([]interface{})
	require.Len(t, rules, 2)
	assert.Equal(t, "fence-closure", rules[0].(map[string]interface{})["id"])
}

func TestWriteConvertsFindings(t *testing.T) {
	finding := domain.NewFinding(domain.FindingInput{
		File:      "ios-best-practices.md",
		LineStart: 40,
		LineEnd:   42,
		Rule:      "fence-closure",
		Severity:  domain.SeverityError,
		Message:   "Fenced code block opened on line 40 is never closed",
	})
	report := domain.Report{
		RunID:     "run-2-def",
		CorpusDir: "guides",
		Findings:  []domain.Finding{finding},
		FailOn:    domain.SeverityError,
		Failed:    true,
	}

	run := firstRun(t, writeAndDecode(t, report))
	results := run["results"].([]interface{})
	require.Len(t, results, 1)
	result := results[0].(map[string]interface{})
	assert.Equal(t, "fence-closure", result["ruleId"])
	assert.Equal(t, "error", result["level"])

	prints := result["partialFingerprints"].(map[string]interface{})
	assert.Equal(t, string(finding.Fingerprint()), prints["docReviewerFingerprint/v1"])

	locations := result["locations"].([]interface{})
	require.Len(t, locations, 1)
	region := locations[0].(map[string]interface{})["physicalLocation"].(map[string]interface{})["region"].(map[string]interface{})
	assert.Equal(t, float64(40), region["startLine"])
	assert.Equal(t, float64(42), region["endLine"])
}

func TestWriteWholeFileFindingOmitsRegion(t *testing.T) {
	report := domain.Report{
		RunID:     "run-3-ghi",
		CorpusDir: "guides",
		Findings: []domain.Finding{
			domain.NewFinding(domain.FindingInput{
				File:     "README.md",
				Rule:     "index-references",
				Severity: domain.SeverityError,
				Message:  "Index document README.md does not exist",
			}),
		},
		FailOn: domain.SeverityError,
	}

	run := firstRun(t, writeAndDecode(t, report))
	result := run["results"].([]interface{})[0].(map[string]interface{})
	location := result["locations"].([]interface{})[0].(map[string]interface{})["physicalLocation"].(map[string]interface{})
	assert.Equal(t, "README.md", location["artifactLocation"].(map[string]interface{})["uri"])
	_, hasRegion := location["region"]
	assert.False(t, hasRegion)
}

func TestWriteSuppressedFindingCarriesSuppression(t *testing.T) {
	finding := domain.NewFinding(domain.FindingInput{
		File:      "web-best-practices.md",
		LineStart: 9,
		Rule:      "fence-language",
		Severity:  domain.SeverityInfo,
		Message:   "Backtick fence has no language",
	})
	finding.Suppressed = true
	report := domain.Report{
		RunID:     "run-4-jkl",
		CorpusDir: "guides",
		Findings:  []domain.Finding{finding},
		FailOn:    domain.SeverityError,
	}

	run := firstRun(t, writeAndDecode(t, report))
	result := run["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "note", result["level"])
	suppressions := result["suppressions"].([]interface{})
	require.Len(t, suppressions, 1)
	assert.Equal(t, "external", suppressions[0].(map[string]interface{})["kind"])
}

func TestConvertSeverity(t *testing.T) {
	assert.Equal(t, "error", convertSeverity(domain.SeverityError))
	assert.Equal(t, "warning", convertSeverity(domain.SeverityWarning))
	assert.Equal(t, "note", convertSeverity(domain.SeverityInfo))
	assert.Equal(t, "warning", convertSeverity(domain.Severity("bogus")))
}
