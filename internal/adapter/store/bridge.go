package store

import (
	"context"

	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/store"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

// Bridge adapts store.Store to the lint.Store port.
// This avoids circular dependencies between packages.
type Bridge struct {
	store store.Store
}

// NewBridge creates a new store adapter.
func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// SaveRun converts and saves a run record with its findings.
func (b *Bridge) SaveRun(ctx context.Context, run lint.StoreRun, findings []lint.StoreFinding) error {
	records := make([]store.FindingRecord, len(findings))
	for i, f := range findings {
		records[i] = store.FindingRecord{
			RunID:       f.RunID,
			FindingID:   f.FindingID,
			Fingerprint: f.Fingerprint,
			File:        f.File,
			LineStart:   f.LineStart,
			LineEnd:     f.LineEnd,
			Rule:        f.Rule,
			Severity:    f.Severity,
			Message:     f.Message,
			Suggestion:  f.Suggestion,
			Suppressed:  f.Suppressed,
		}
	}
	return b.store.SaveRun(ctx, runToRecord(run), records)
}

// ListRuns returns up to limit runs, newest first.
func (b *Bridge) ListRuns(ctx context.Context, limit int) ([]lint.StoreRun, error) {
	runs, err := b.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	converted := make([]lint.StoreRun, len(runs))
	for i, run := range runs {
		converted[i] = runFromRecord(run)
	}
	return converted, nil
}

// LatestRun returns the most recent run, with ok=false on an empty store.
func (b *Bridge) LatestRun(ctx context.Context) (lint.StoreRun, bool, error) {
	run, ok, err := b.store.LatestRun(ctx)
	if err != nil || !ok {
		return lint.StoreRun{}, false, err
	}
	return runFromRecord(run), true, nil
}

// LoadBaseline returns the stored baseline as domain entries.
func (b *Bridge) LoadBaseline(ctx context.Context) ([]domain.BaselineEntry, error) {
	entries, err := b.store.LoadBaseline(ctx)
	if err != nil {
		return nil, err
	}
	converted := make([]domain.BaselineEntry, len(entries))
	for i, e := range entries {
		converted[i] = domain.BaselineEntry{
			Fingerprint: domain.Fingerprint(e.Fingerprint),
			File:        e.File,
			Rule:        e.Rule,
			Severity:    domain.Severity(e.Severity),
			Message:     e.Message,
			AddedAt:     e.AddedAt,
		}
	}
	return converted, nil
}

// ReplaceBaseline swaps the stored baseline for the given entries.
func (b *Bridge) ReplaceBaseline(ctx context.Context, entries []domain.BaselineEntry) error {
	records := make([]store.BaselineEntry, len(entries))
	for i, e := range entries {
		records[i] = store.BaselineEntry{
			Fingerprint: string(e.Fingerprint),
			File:        e.File,
			Rule:        e.Rule,
			Severity:    string(e.Severity),
			Message:     e.Message,
			AddedAt:     e.AddedAt,
		}
	}
	return b.store.ReplaceBaseline(ctx, records)
}

// ClearBaseline removes every stored baseline entry.
func (b *Bridge) ClearBaseline(ctx context.Context) error {
	return b.store.ClearBaseline(ctx)
}

// Close closes the underlying store.
func (b *Bridge) Close() error {
	return b.store.Close()
}

func runToRecord(run lint.StoreRun) store.Run {
	return store.Run{
		RunID:           run.RunID,
		CreatedAt:       run.CreatedAt,
		CorpusDir:       run.CorpusDir,
		GitBranch:       run.GitBranch,
		GitCommit:       run.GitCommit,
		ConfigHash:      run.ConfigHash,
		CorpusHash:      run.CorpusHash,
		DocumentCount:   run.DocumentCount,
		FindingCount:    run.FindingCount,
		SuppressedCount: run.SuppressedCount,
		Failed:          run.Failed,
		Duration:        run.Duration,
	}
}

func runFromRecord(run store.Run) lint.StoreRun {
	return lint.StoreRun{
		RunID:           run.RunID,
		CreatedAt:       run.CreatedAt,
		CorpusDir:       run.CorpusDir,
		GitBranch:       run.GitBranch,
		GitCommit:       run.GitCommit,
		ConfigHash:      run.ConfigHash,
		CorpusHash:      run.CorpusHash,
		DocumentCount:   run.DocumentCount,
		FindingCount:    run.FindingCount,
		SuppressedCount: run.SuppressedCount,
		Failed:          run.Failed,
		Duration:        run.Duration,
	}
}
