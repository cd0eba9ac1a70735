package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for lint history and baselines.
type Store interface {
	// Run management
	SaveRun(ctx context.Context, run Run, findings []FindingRecord) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	LatestRun(ctx context.Context) (Run, bool, error)

	// Baseline management
	LoadBaseline(ctx context.Context) ([]BaselineEntry, error)
	ReplaceBaseline(ctx context.Context, entries []BaselineEntry) error
	ClearBaseline(ctx context.Context) error

	// Utility
	Close() error
}

// Run represents a single lint execution.
type Run struct {
	RunID           string
	CreatedAt       time.Time
	CorpusDir       string
	GitBranch       string
	GitCommit       string
	ConfigHash      string
	CorpusHash      string
	DocumentCount   int
	FindingCount    int
	SuppressedCount int
	Failed          bool
	Duration        time.Duration
}

// FindingRecord represents a single finding as persisted for one run.
type FindingRecord struct {
	RunID       string
	FindingID   string
	Fingerprint string
	File        string
	LineStart   int
	LineEnd     int
	Rule        string
	Severity    string
	Message     string
	Suggestion  string
	Suppressed  bool
}

// BaselineEntry records one accepted finding.
type BaselineEntry struct {
	Fingerprint string
	File        string
	Rule        string
	Severity    string
	Message     string
	AddedAt     time.Time
}
