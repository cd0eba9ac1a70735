package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Finding represents a single rule violation in one document.
// LineStart and LineEnd are 1-based and inclusive; zero means the finding
// applies to the document (or corpus) as a whole rather than a line range.
type Finding struct {
	ID         string   `json:"id"`
	File       string   `json:"file"`
	LineStart  int      `json:"lineStart"`
	LineEnd    int      `json:"lineEnd"`
	Rule       string   `json:"rule"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Suppressed bool     `json:"suppressed,omitempty"`
}

// FindingInput captures the information required to create a Finding.
type FindingInput struct {
	File       string
	LineStart  int
	LineEnd    int
	Rule       string
	Severity   Severity
	Message    string
	Suggestion string
}

// NewFinding constructs a Finding with a deterministic ID. Equal inputs
// produce equal IDs across runs and hosts. Suppression is run state, not
// identity, so it never participates in the hash.
func NewFinding(input FindingInput) Finding {
	id := hashFinding(input)
	return Finding{
		ID:         id,
		File:       input.File,
		LineStart:  input.LineStart,
		LineEnd:    input.LineEnd,
		Rule:       input.Rule,
		Severity:   input.Severity,
		Message:    input.Message,
		Suggestion: input.Suggestion,
	}
}

func hashFinding(input FindingInput) string {
	payload := fmt.Sprintf("%s|%d|%d|%s|%s|%s",
		input.File,
		input.LineStart,
		input.LineEnd,
		input.Rule,
		input.Severity,
		input.Message,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SortFindings orders findings for stable report output: by file, then
// start line, then rule, then message.
func SortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.LineStart != b.LineStart {
			return a.LineStart < b.LineStart
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

// CountBySeverity tallies findings per severity, suppressed ones included.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// MaxActiveSeverity returns the highest severity among unsuppressed
// findings, or false when every finding is suppressed (or there are none).
func MaxActiveSeverity(findings []Finding) (Severity, bool) {
	var max Severity
	found := false
	for _, f := range findings {
		if f.Suppressed {
			continue
		}
		if !found || f.Severity.Rank() > max.Rank() {
			max = f.Severity
			found = true
		}
	}
	return max, found
}
