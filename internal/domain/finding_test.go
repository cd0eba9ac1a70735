package domain_test

import (
	"testing"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

func TestFindingDeterministicID(t *testing.T) {
	finding := domain.NewFinding(domain.FindingInput{
		File:       "android-best-practices.md",
		LineStart:  42,
		LineEnd:    42,
		Rule:       "fence-closure",
		Severity:   domain.SeverityError,
		Message:    "code fence opened here is never closed",
		Suggestion: "add a closing ``` line",
	})

	again := domain.NewFinding(domain.FindingInput{
		File:       "android-best-practices.md",
		LineStart:  42,
		LineEnd:    42,
		Rule:       "fence-closure",
		Severity:   domain.SeverityError,
		Message:    "code fence opened here is never closed",
		Suggestion: "add a closing ``` line",
	})

	if finding.ID != again.ID {
		t.Fatalf("expected deterministic IDs, got %s and %s", finding.ID, again.ID)
	}
}

func TestFindingIDChangesWithLine(t *testing.T) {
	base := domain.FindingInput{
		File:     "web-best-practices.md",
		Rule:     "heading-increment",
		Severity: domain.SeverityWarning,
		Message:  "heading level jumps from 2 to 4",
	}

	first := base
	first.LineStart = 10
	second := base
	second.LineStart = 20

	if domain.NewFinding(first).ID == domain.NewFinding(second).ID {
		t.Error("IDs should differ when line numbers differ")
	}
}

func TestFindingIDExcludesSuggestion(t *testing.T) {
	base := domain.FindingInput{
		File:      "README.md",
		LineStart: 3,
		LineEnd:   3,
		Rule:      "index-references",
		Severity:  domain.SeverityError,
		Message:   "linked guide ios-best-practices.md does not exist",
	}

	withSuggestion := base
	withSuggestion.Suggestion = "create the file or remove the link"

	if domain.NewFinding(base).ID != domain.NewFinding(withSuggestion).ID {
		t.Error("ID should not change when only Suggestion differs")
	}
}

func TestSortFindingsOrdering(t *testing.T) {
	findings := []domain.Finding{
		{File: "b.md", LineStart: 5, Rule: "title-structure", Message: "z"},
		{File: "a.md", LineStart: 9, Rule: "fence-closure", Message: "m"},
		{File: "a.md", LineStart: 2, Rule: "heading-increment", Message: "n"},
		{File: "a.md", LineStart: 2, Rule: "fence-closure", Message: "n"},
	}

	domain.SortFindings(findings)

	got := make([]string, 0, len(findings))
	for _, f := range findings {
		got = append(got, f.File+"|"+f.Rule)
	}

	want := []string{
		"a.md|fence-closure",
		"a.md|heading-increment",
		"a.md|fence-closure",
		"b.md|title-structure",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (full order: %v)", i, got[i], want[i], got)
		}
	}
}

func TestCountBySeverity(t *testing.T) {
	findings := []domain.Finding{
		{Severity: domain.SeverityError},
		{Severity: domain.SeverityError, Suppressed: true},
		{Severity: domain.SeverityWarning},
		{Severity: domain.SeverityInfo},
	}

	counts := domain.CountBySeverity(findings)

	if counts[domain.SeverityError] != 2 {
		t.Errorf("error count = %d, want 2 (suppressed findings still count)", counts[domain.SeverityError])
	}
	if counts[domain.SeverityWarning] != 1 {
		t.Errorf("warning count = %d, want 1", counts[domain.SeverityWarning])
	}
	if counts[domain.SeverityInfo] != 1 {
		t.Errorf("info count = %d, want 1", counts[domain.SeverityInfo])
	}
}

func TestMaxActiveSeverityIgnoresSuppressed(t *testing.T) {
	findings := []domain.Finding{
		{Severity: domain.SeverityError, Suppressed: true},
		{Severity: domain.SeverityWarning},
		{Severity: domain.SeverityInfo},
	}

	max, ok := domain.MaxActiveSeverity(findings)
	if !ok {
		t.Fatal("expected an active severity")
	}
	if max != domain.SeverityWarning {
		t.Errorf("max = %s, want warning (error is suppressed)", max)
	}
}

func TestMaxActiveSeverityAllSuppressed(t *testing.T) {
	findings := []domain.Finding{
		{Severity: domain.SeverityError, Suppressed: true},
	}

	if _, ok := domain.MaxActiveSeverity(findings); ok {
		t.Error("expected no active severity when everything is suppressed")
	}
}
