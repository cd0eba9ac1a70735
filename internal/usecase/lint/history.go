package lint

import (
	"context"
	"errors"
	"fmt"
)

// DefaultHistoryLimit bounds how many runs History returns when the caller
// does not ask for a specific count.
const DefaultHistoryLimit = 10

// HistoryEntry pairs a stored run with the finding delta against the run
// before it. This is a platform-agnostic DTO; the CLI renders it as a table.
type HistoryEntry struct {
	Run StoreRun

	// DeltaFindings is Run.FindingCount minus the next older run's count.
	// Zero when HasPrevious is false.
	DeltaFindings int

	// HasPrevious reports whether an older run existed to diff against.
	HasPrevious bool
}

// History returns the most recent runs, newest first.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if o.deps.Store == nil {
		return nil, errors.New("history requires the history store")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	// Fetch one extra run so the oldest entry on the page still gets a delta.
	runs, err := o.deps.Store.ListRuns(ctx, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for i, run := range runs {
		if i == limit {
			break
		}
		entry := HistoryEntry{Run: run}
		if i+1 < len(runs) {
			entry.HasPrevious = true
			entry.DeltaFindings = run.FindingCount - runs[i+1].FindingCount
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
