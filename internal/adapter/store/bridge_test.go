package store_test

import (
	"context"
	"testing"
	"time"

	storeAdapter "github.com/bkyoung/doc-reviewer/internal/adapter/store"
	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/store"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ lint.Store = (*storeAdapter.Bridge)(nil)

// mockStore implements store.Store for testing
type mockStore struct {
	runs     []store.Run
	findings []store.FindingRecord
	latest   *store.Run
	baseline []store.BaselineEntry
	cleared  bool
	closed   bool
}

func (m *mockStore) SaveRun(ctx context.Context, run store.Run, findings []store.FindingRecord) error {
	m.runs = append(m.runs, run)
	m.findings = append(m.findings, findings...)
	return nil
}

func (m *mockStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[:limit], nil
}

func (m *mockStore) LatestRun(ctx context.Context) (store.Run, bool, error) {
	if m.latest == nil {
		return store.Run{}, false, nil
	}
	return *m.latest, true, nil
}

func (m *mockStore) LoadBaseline(ctx context.Context) ([]store.BaselineEntry, error) {
	return m.baseline, nil
}

func (m *mockStore) ReplaceBaseline(ctx context.Context, entries []store.BaselineEntry) error {
	m.baseline = entries
	return nil
}

func (m *mockStore) ClearBaseline(ctx context.Context) error {
	m.cleared = true
	m.baseline = nil
	return nil
}

func (m *mockStore) Close() error {
	m.closed = true
	return nil
}

func TestBridge_SaveRun(t *testing.T) {
	mock := &mockStore{}
	bridge := storeAdapter.NewBridge(mock)

	now := time.Now()
	run := lint.StoreRun{
		RunID:           "run-123",
		CreatedAt:       now,
		CorpusDir:       "/docs",
		GitBranch:       "main",
		GitCommit:       "abc1234",
		ConfigHash:      "cfg",
		CorpusHash:      "corpus",
		DocumentCount:   12,
		FindingCount:    2,
		SuppressedCount: 1,
		Failed:          true,
		Duration:        250 * time.Millisecond,
	}
	findings := []lint.StoreFinding{
		{
			RunID:       "run-123",
			FindingID:   "f1",
			Fingerprint: "fp1",
			File:        "guide.md",
			LineStart:   3,
			LineEnd:     3,
			Rule:        "fence-closure",
			Severity:    "error",
			Message:     "unclosed fence",
			Suggestion:  "close it",
		},
		{RunID: "run-123", FindingID: "f2", Fingerprint: "fp2", Rule: "orphaned-guides", Severity: "warning", Message: "orphan", Suppressed: true},
	}

	err := bridge.SaveRun(context.Background(), run, findings)
	require.NoError(t, err)

	// Verify conversion
	require.Len(t, mock.runs, 1)
	got := mock.runs[0]
	assert.Equal(t, "run-123", got.RunID)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Equal(t, "/docs", got.CorpusDir)
	assert.Equal(t, "main", got.GitBranch)
	assert.Equal(t, "abc1234", got.GitCommit)
	assert.Equal(t, "cfg", got.ConfigHash)
	assert.Equal(t, "corpus", got.CorpusHash)
	assert.Equal(t, 12, got.DocumentCount)
	assert.Equal(t, 2, got.FindingCount)
	assert.Equal(t, 1, got.SuppressedCount)
	assert.True(t, got.Failed)
	assert.Equal(t, 250*time.Millisecond, got.Duration)

	require.Len(t, mock.findings, 2)
	assert.Equal(t, "f1", mock.findings[0].FindingID)
	assert.Equal(t, "fp1", mock.findings[0].Fingerprint)
	assert.Equal(t, "fence-closure", mock.findings[0].Rule)
	assert.Equal(t, "error", mock.findings[0].Severity)
	assert.False(t, mock.findings[0].Suppressed)
	assert.True(t, mock.findings[1].Suppressed)
}

func TestBridge_ListRuns(t *testing.T) {
	mock := &mockStore{runs: []store.Run{
		{RunID: "run-2", FindingCount: 5},
		{RunID: "run-1", FindingCount: 3},
	}}
	bridge := storeAdapter.NewBridge(mock)

	runs, err := bridge.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 5, runs[0].FindingCount)
	assert.Equal(t, "run-1", runs[1].RunID)
}

func TestBridge_LatestRun(t *testing.T) {
	mock := &mockStore{}
	bridge := storeAdapter.NewBridge(mock)

	_, ok, err := bridge.LatestRun(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "empty store should report no latest run")

	mock.latest = &store.Run{RunID: "run-9", CorpusHash: "hash"}
	run, ok, err := bridge.LatestRun(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "run-9", run.RunID)
	assert.Equal(t, "hash", run.CorpusHash)
}

func TestBridge_BaselineRoundTrip(t *testing.T) {
	mock := &mockStore{}
	bridge := storeAdapter.NewBridge(mock)

	added := time.Now()
	entries := []domain.BaselineEntry{
		{
			Fingerprint: domain.Fingerprint("fp1"),
			File:        "guide.md",
			Rule:        "fence-closure",
			Severity:    domain.SeverityError,
			Message:     "unclosed fence",
			AddedAt:     added,
		},
	}

	err := bridge.ReplaceBaseline(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, mock.baseline, 1)
	assert.Equal(t, "fp1", mock.baseline[0].Fingerprint)
	assert.Equal(t, "error", mock.baseline[0].Severity)

	loaded, err := bridge.LoadBaseline(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.Fingerprint("fp1"), loaded[0].Fingerprint)
	assert.Equal(t, domain.SeverityError, loaded[0].Severity)
	assert.Equal(t, "guide.md", loaded[0].File)
	assert.True(t, added.Equal(loaded[0].AddedAt))
}

func TestBridge_ClearBaselineAndClose(t *testing.T) {
	mock := &mockStore{baseline: []store.BaselineEntry{{Fingerprint: "fp1"}}}
	bridge := storeAdapter.NewBridge(mock)

	require.NoError(t, bridge.ClearBaseline(context.Background()))
	assert.True(t, mock.cleared)
	assert.Empty(t, mock.baseline)

	require.NoError(t, bridge.Close())
	assert.True(t, mock.closed)
}
