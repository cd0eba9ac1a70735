package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Fingerprint uniquely identifies a finding across lint runs.
// It's stable across line number changes so unrelated edits that shift
// content do not dislodge baseline entries.
type Fingerprint string

// NewFingerprint creates a stable identifier for a finding.
// Uses file path + rule + severity + message prefix. Line numbers are
// intentionally excluded.
func NewFingerprint(file, rule string, severity Severity, message string) Fingerprint {
	// First 100 chars of the message tolerate minor wording drift
	msgPrefix := message
	if len(msgPrefix) > 100 {
		msgPrefix = msgPrefix[:100]
	}

	payload := fmt.Sprintf("%s|%s|%s|%s", file, rule, severity, msgPrefix)
	sum := sha256.Sum256([]byte(payload))
	return Fingerprint(hex.EncodeToString(sum[:16])) // 32 hex chars
}

// FingerprintFromFinding creates a fingerprint from an existing Finding.
func FingerprintFromFinding(f Finding) Fingerprint {
	return NewFingerprint(f.File, f.Rule, f.Severity, f.Message)
}

// Fingerprint returns the stable cross-run identity of the finding.
func (f Finding) Fingerprint() Fingerprint {
	return FingerprintFromFinding(f)
}

// BaselineEntry records one accepted finding.
type BaselineEntry struct {
	Fingerprint Fingerprint
	File        string
	Rule        string
	Severity    Severity
	Message     string
	AddedAt     time.Time
}

// BaselineEntryInput captures information needed to create a BaselineEntry.
type BaselineEntryInput struct {
	Fingerprint Fingerprint
	File        string
	Rule        string
	Severity    Severity
	Message     string
	AddedAt     time.Time
}

// NewBaselineEntry constructs a BaselineEntry with validation.
func NewBaselineEntry(input BaselineEntryInput) (BaselineEntry, error) {
	if input.Fingerprint == "" {
		return BaselineEntry{}, fmt.Errorf("fingerprint is required")
	}

	if input.File == "" {
		return BaselineEntry{}, fmt.Errorf("file is required")
	}

	if input.Rule == "" {
		return BaselineEntry{}, fmt.Errorf("rule is required")
	}

	if !input.Severity.IsValid() {
		return BaselineEntry{}, fmt.Errorf("invalid severity: %s", input.Severity)
	}

	return BaselineEntry{
		Fingerprint: input.Fingerprint,
		File:        input.File,
		Rule:        input.Rule,
		Severity:    input.Severity,
		Message:     input.Message,
		AddedAt:     input.AddedAt,
	}, nil
}

// BaselineEntryFromFinding creates an entry accepting the given finding.
func BaselineEntryFromFinding(f Finding, addedAt time.Time) (BaselineEntry, error) {
	return NewBaselineEntry(BaselineEntryInput{
		Fingerprint: f.Fingerprint(),
		File:        f.File,
		Rule:        f.Rule,
		Severity:    f.Severity,
		Message:     f.Message,
		AddedAt:     addedAt,
	})
}

// Baseline is the set of accepted findings, keyed by fingerprint.
type Baseline struct {
	entries map[Fingerprint]BaselineEntry
}

// NewBaseline builds a Baseline from entries. Later duplicates win.
func NewBaseline(entries []BaselineEntry) *Baseline {
	m := make(map[Fingerprint]BaselineEntry, len(entries))
	for _, e := range entries {
		m[e.Fingerprint] = e
	}
	return &Baseline{entries: m}
}

// Covers reports whether the fingerprint is accepted by the baseline.
func (b *Baseline) Covers(fp Fingerprint) bool {
	if b == nil {
		return false
	}
	_, ok := b.entries[fp]
	return ok
}

// Len returns the number of accepted findings.
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
