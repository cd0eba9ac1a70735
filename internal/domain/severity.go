package domain

import (
	"fmt"
	"strings"
)

// Severity classifies how serious a finding is.
type Severity string

const (
	// SeverityError marks findings that break rendering or navigation.
	SeverityError Severity = "error"
	// SeverityWarning marks structural hygiene findings.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks advisory findings.
	SeverityInfo Severity = "info"
)

// ParseSeverity converts user input into a Severity.
func ParseSeverity(s string) (Severity, error) {
	normalized := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !normalized.IsValid() {
		return "", fmt.Errorf("unknown severity %q (expected error, warning, or info)", s)
	}
	return normalized, nil
}

// IsValid returns true if the severity is a recognized value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

// Rank orders severities for threshold comparisons. Higher is more severe;
// unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}
