package lint_test

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/markdown"
	"github.com/bkyoung/doc-reviewer/internal/rules"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

type mockScanner struct {
	corpus *markdown.Corpus
	err    error
	dirs   []string
}

func (m *mockScanner) Scan(ctx context.Context, dir string) (*markdown.Corpus, error) {
	m.dirs = append(m.dirs, dir)
	if m.err != nil {
		return nil, m.err
	}
	return m.corpus, nil
}

type mockGit struct {
	paths       []string
	pathsErr    error
	branch      string
	commit      string
	describeErr error
	baseRefs    []string
}

func (m *mockGit) ChangedPaths(ctx context.Context, baseRef string) ([]string, error) {
	m.baseRefs = append(m.baseRefs, baseRef)
	if m.pathsErr != nil {
		return nil, m.pathsErr
	}
	return m.paths, nil
}

func (m *mockGit) Describe(ctx context.Context) (string, string, error) {
	if m.describeErr != nil {
		return "", "", m.describeErr
	}
	return m.branch, m.commit, nil
}

type mockStore struct {
	runs     []lint.StoreRun
	findings []lint.StoreFinding
	saveErr  error

	latest    lint.StoreRun
	hasLatest bool
	latestErr error

	listRuns []lint.StoreRun
	listErr  error
	listed   []int

	baseline   []domain.BaselineEntry
	loadErr    error
	replaced   [][]domain.BaselineEntry
	replaceErr error
	cleared    int
	clearErr   error
}

func (m *mockStore) SaveRun(ctx context.Context, run lint.StoreRun, findings []lint.StoreFinding) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs = append(m.runs, run)
	m.findings = append(m.findings, findings...)
	return nil
}

func (m *mockStore) ListRuns(ctx context.Context, limit int) ([]lint.StoreRun, error) {
	m.listed = append(m.listed, limit)
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > len(m.listRuns) {
		limit = len(m.listRuns)
	}
	return m.listRuns[:limit], nil
}

func (m *mockStore) LatestRun(ctx context.Context) (lint.StoreRun, bool, error) {
	if m.latestErr != nil {
		return lint.StoreRun{}, false, m.latestErr
	}
	return m.latest, m.hasLatest, nil
}

func (m *mockStore) LoadBaseline(ctx context.Context) ([]domain.BaselineEntry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.baseline, nil
}

func (m *mockStore) ReplaceBaseline(ctx context.Context, entries []domain.BaselineEntry) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced = append(m.replaced, entries)
	return nil
}

func (m *mockStore) ClearBaseline(ctx context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared++
	return nil
}

func (m *mockStore) Close() error { return nil }

type mockWriter struct {
	name      string
	err       error
	artifacts []domain.ReportArtifact
}

func (m *mockWriter) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.artifacts = append(m.artifacts, artifact)
	return filepath.Join(artifact.OutputDir, m.name), nil
}

type mockConsole struct {
	reports []domain.Report
	err     error
}

func (m *mockConsole) Print(report domain.Report) error {
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, report)
	return nil
}

// mockLogger records level-prefixed messages. Rules run concurrently, so
// every method locks.
type mockLogger struct {
	mu      sync.Mutex
	entries []string
}

func (m *mockLogger) record(level, message string) {
	m.mu.Lock()
	m.entries = append(m.entries, level+": "+message)
	m.mu.Unlock()
}

func (m *mockLogger) LogDebug(ctx context.Context, message string, fields map[string]interface{}) {
	m.record("debug", message)
}

func (m *mockLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	m.record("info", message)
}

func (m *mockLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	m.record("warning", message)
}

func (m *mockLogger) LogError(ctx context.Context, message string, fields map[string]interface{}) {
	m.record("error", message)
}

func (m *mockLogger) has(level, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e == level+": "+message {
			return true
		}
	}
	return false
}

// buildCorpus parses the given files into an in-memory corpus, standing in
// for the filesystem scanner.
func buildCorpus(root, index string, files map[string]string) *markdown.Corpus {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	corpus := &markdown.Corpus{Root: root, Files: paths}
	for _, path := range paths {
		if !strings.HasSuffix(path, ".md") {
			continue
		}
		corpus.Documents = append(corpus.Documents, markdown.Parse(path, []byte(files[path])))
	}
	if _, ok := files[index]; ok {
		corpus.IndexPath = index
	}
	return corpus
}

func newEngine(t *testing.T, cfg rules.Config) *rules.Engine {
	t.Helper()
	engine, err := rules.NewEngine(cfg)
	if err != nil {
		t.Fatalf("build rule engine: %v", err)
	}
	return engine
}

func fixedClock(sec int64) lint.Clock {
	return func() time.Time {
		return time.Unix(sec, 0).UTC()
	}
}

func TestLintSortsFindingsAndComputesFailure(t *testing.T) {
	ctx := context.Background()
	corpus := buildCorpus("/docs", "", map[string]string{
		"alpha.md": "# Alpha\n\n## Section\n\n#### Deep\n",
		"guide.md": "# Guide\n\n```go\nfmt.Println(\"hi\")\n",
	})
	storeMock := &mockStore{}
	gitMock := &mockGit{branch: "main", commit: "abc1234"}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner:    &mockScanner{corpus: corpus},
		Rules:      newEngine(t, rules.Config{Only: []string{"fence-closure", "heading-increment"}}),
		Git:        gitMock,
		Store:      storeMock,
		Clock:      fixedClock(1700000000),
		ConfigHash: "cfg-hash",
		Tool:       domain.ToolInfo{Name: "dr", Version: "test"},
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:         "/docs",
		FailOn:      domain.SeverityError,
		UseBaseline: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(result.Findings), result.Findings)
	}
	if result.Findings[0].File != "alpha.md" || result.Findings[0].Rule != "heading-increment" {
		t.Fatalf("unexpected first finding: %+v", result.Findings[0])
	}
	if result.Findings[0].LineStart != 5 {
		t.Fatalf("expected heading jump on line 5, got %d", result.Findings[0].LineStart)
	}
	if result.Findings[1].File != "guide.md" || result.Findings[1].Rule != "fence-closure" {
		t.Fatalf("unexpected second finding: %+v", result.Findings[1])
	}
	if !result.Failed {
		t.Fatalf("expected run to fail at error severity")
	}
	if result.DocumentCount != 2 {
		t.Fatalf("expected 2 documents, got %d", result.DocumentCount)
	}
	if result.Suppressed != 0 {
		t.Fatalf("expected no suppressed findings, got %d", result.Suppressed)
	}
	if !strings.HasPrefix(result.RunID, "run-1700000000-") {
		t.Fatalf("unexpected run ID %q", result.RunID)
	}

	if len(storeMock.runs) != 1 {
		t.Fatalf("expected one persisted run, got %d", len(storeMock.runs))
	}
	run := storeMock.runs[0]
	if run.RunID != result.RunID {
		t.Fatalf("persisted run ID %q does not match result %q", run.RunID, result.RunID)
	}
	if run.FindingCount != 2 || run.DocumentCount != 2 || !run.Failed {
		t.Fatalf("unexpected persisted run: %+v", run)
	}
	if run.ConfigHash != "cfg-hash" || run.CorpusHash == "" {
		t.Fatalf("expected config and corpus hashes on the run, got %+v", run)
	}
	if run.GitBranch != "main" || run.GitCommit != "abc1234" {
		t.Fatalf("expected git metadata on the run, got %+v", run)
	}
	if len(storeMock.findings) != 2 {
		t.Fatalf("expected 2 persisted findings, got %d", len(storeMock.findings))
	}
	if storeMock.findings[0].RunID != result.RunID || storeMock.findings[0].Fingerprint == "" {
		t.Fatalf("unexpected persisted finding: %+v", storeMock.findings[0])
	}
}

func TestLintEmptyCorpusIsAValidResult(t *testing.T) {
	ctx := context.Background()
	loggerMock := &mockLogger{}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", nil)},
		Rules:   newEngine(t, rules.Config{}),
		Logger:  loggerMock,
		Clock:   fixedClock(1700000000),
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Findings) != 0 || result.Failed {
		t.Fatalf("expected a clean result, got %+v", result)
	}
	if result.DocumentCount != 0 {
		t.Fatalf("expected 0 documents, got %d", result.DocumentCount)
	}
	if !loggerMock.has("info", "corpus contains no markdown documents") {
		t.Fatalf("expected an info log about the empty corpus, got %v", loggerMock.entries)
	}
}

func TestLintValidatesDependenciesAndRequest(t *testing.T) {
	ctx := context.Background()

	_, err := lint.NewOrchestrator(lint.OrchestratorDeps{}).Lint(ctx, lint.LintRequest{})
	if err == nil || !strings.Contains(err.Error(), "scanner is required") {
		t.Fatalf("expected scanner error, got %v", err)
	}

	_, err = lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{},
	}).Lint(ctx, lint.LintRequest{})
	if err == nil || !strings.Contains(err.Error(), "rule engine is required") {
		t.Fatalf("expected rule engine error, got %v", err)
	}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", nil)},
		Rules:   newEngine(t, rules.Config{}),
	})

	_, err = orchestrator.Lint(ctx, lint.LintRequest{FailOn: domain.SeverityError})
	if err == nil || !strings.Contains(err.Error(), "corpus directory is required") {
		t.Fatalf("expected directory error, got %v", err)
	}

	_, err = orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: "fatal"})
	if err == nil || !strings.Contains(err.Error(), `unknown fail-on severity "fatal"`) {
		t.Fatalf("expected severity error, got %v", err)
	}

	_, err = orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError, ChangedOnly: true})
	if err == nil || !strings.Contains(err.Error(), "base ref") {
		t.Fatalf("expected base ref error, got %v", err)
	}
}

func TestLintChangedOnlyNarrowsDocumentRules(t *testing.T) {
	ctx := context.Background()
	corpus := buildCorpus("/docs", "README.md", map[string]string{
		"README.md": "# Guides\n",
		"alpha.md":  "# Alpha\n\n```sh\n",
		"beta.md":   "# Beta\n\n```sh\n",
	})
	gitMock := &mockGit{paths: []string{"beta.md"}}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: corpus},
		Rules:   newEngine(t, rules.Config{Only: []string{"fence-closure", "orphaned-guides"}}),
		Git:     gitMock,
		Clock:   fixedClock(1700000000),
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:         "/docs",
		ChangedOnly: true,
		BaseRef:     "origin/main",
		FailOn:      domain.SeverityError,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(gitMock.baseRefs) != 1 || gitMock.baseRefs[0] != "origin/main" {
		t.Fatalf("expected one ChangedPaths call with origin/main, got %v", gitMock.baseRefs)
	}

	// Document rules only ran on beta.md, but the corpus-wide orphan check
	// still reported both unlinked guides.
	var fenceFiles, orphanFiles []string
	for _, f := range result.Findings {
		switch f.Rule {
		case "fence-closure":
			fenceFiles = append(fenceFiles, f.File)
		case "orphaned-guides":
			orphanFiles = append(orphanFiles, f.File)
		}
	}
	if len(fenceFiles) != 1 || fenceFiles[0] != "beta.md" {
		t.Fatalf("expected a fence finding for beta.md only, got %v", fenceFiles)
	}
	if len(orphanFiles) != 2 || orphanFiles[0] != "alpha.md" || orphanFiles[1] != "beta.md" {
		t.Fatalf("expected orphan findings for both guides, got %v", orphanFiles)
	}
	if result.DocumentCount != 3 {
		t.Fatalf("expected the full corpus document count, got %d", result.DocumentCount)
	}
}

func TestLintChangedOnlyRequiresGit(t *testing.T) {
	ctx := context.Background()
	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", nil)},
		Rules:   newEngine(t, rules.Config{}),
	})

	_, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:         "/docs",
		ChangedOnly: true,
		BaseRef:     "origin/main",
		FailOn:      domain.SeverityError,
	})
	if err == nil || !strings.Contains(err.Error(), "requires a git repository") {
		t.Fatalf("expected git requirement error, got %v", err)
	}
}

func TestLintChangedOnlyPropagatesGitFailure(t *testing.T) {
	ctx := context.Background()
	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", nil)},
		Rules:   newEngine(t, rules.Config{}),
		Git:     &mockGit{pathsErr: errors.New("not a repository")},
	})

	_, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:         "/docs",
		ChangedOnly: true,
		BaseRef:     "origin/main",
		FailOn:      domain.SeverityError,
	})
	if err == nil || !strings.Contains(err.Error(), "detect changed paths") {
		t.Fatalf("expected changed paths error, got %v", err)
	}
}

func TestLintRuleFilterAndSkip(t *testing.T) {
	ctx := context.Background()
	corpus := buildCorpus("/docs", "", map[string]string{
		"guide.md": "# Guide\n\n#### Deep\n\n```sh\n",
	})
	engine := newEngine(t, rules.Config{Only: []string{"fence-closure", "heading-increment"}})

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: corpus},
		Rules:   engine,
		Clock:   fixedClock(1700000000),
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:        "/docs",
		FailOn:     domain.SeverityError,
		RuleFilter: []string{"fence-closure"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Findings) != 1 || result.Findings[0].Rule != "fence-closure" {
		t.Fatalf("expected only the fence finding, got %+v", result.Findings)
	}

	result, err = orchestrator.Lint(ctx, lint.LintRequest{
		Dir:       "/docs",
		FailOn:    domain.SeverityError,
		SkipRules: []string{"fence-closure"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Findings) != 1 || result.Findings[0].Rule != "heading-increment" {
		t.Fatalf("expected only the heading finding, got %+v", result.Findings)
	}

	_, err = orchestrator.Lint(ctx, lint.LintRequest{
		Dir:        "/docs",
		FailOn:     domain.SeverityError,
		RuleFilter: []string{"no-such-rule"},
	})
	if err == nil || !strings.Contains(err.Error(), `unknown rule "no-such-rule"`) {
		t.Fatalf("expected unknown rule error, got %v", err)
	}
}

func TestLintBaselineSuppressesKnownFindings(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{
		"guide.md": "# Guide\n\n```sh\n",
	}
	storeMock := &mockStore{}

	deps := lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", files)},
		Rules:   newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Store:   storeMock,
		Clock:   fixedClock(1700000000),
	}
	orchestrator := lint.NewOrchestrator(deps)

	first, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(first.Findings) != 1 || !first.Failed {
		t.Fatalf("expected one failing finding, got %+v", first)
	}

	entry, err := domain.BaselineEntryFromFinding(first.Findings[0], time.Unix(1700000000, 0).UTC())
	if err != nil {
		t.Fatalf("build baseline entry: %v", err)
	}
	storeMock.baseline = []domain.BaselineEntry{entry}

	second, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:         "/docs",
		FailOn:      domain.SeverityError,
		UseBaseline: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(second.Findings) != 1 || !second.Findings[0].Suppressed {
		t.Fatalf("expected the finding to be baseline-suppressed, got %+v", second.Findings)
	}
	if second.Suppressed != 1 {
		t.Fatalf("expected 1 suppressed finding, got %d", second.Suppressed)
	}
	if second.Failed {
		t.Fatalf("suppressed findings must not fail the run")
	}

	// Without the baseline flag the same finding fails the run again.
	third, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if third.Findings[0].Suppressed || !third.Failed {
		t.Fatalf("expected an unsuppressed failing finding, got %+v", third)
	}
}

func TestLintBaselineLoadFailureDegradesToWarning(t *testing.T) {
	ctx := context.Background()
	loggerMock := &mockLogger{}
	storeMock := &mockStore{loadErr: errors.New("disk gone")}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", map[string]string{"guide.md": "# Guide\n\n```sh\n"})},
		Rules:   newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Store:   storeMock,
		Logger:  loggerMock,
		Clock:   fixedClock(1700000000),
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{
		Dir:         "/docs",
		FailOn:      domain.SeverityError,
		UseBaseline: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Findings[0].Suppressed {
		t.Fatalf("finding must stay active when the baseline cannot load")
	}
	if !loggerMock.has("warning", "failed to load baseline") {
		t.Fatalf("expected a baseline warning, got %v", loggerMock.entries)
	}
}

func TestLintDirectiveSuppressionCountsWithoutEmitting(t *testing.T) {
	ctx := context.Background()
	corpus := buildCorpus("/docs", "", map[string]string{
		"guide.md": "# Guide\n\n## A\n\n#### Deep <!-- dr:disable-line heading-increment -->\n",
	})

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: corpus},
		Rules:   newEngine(t, rules.Config{Only: []string{"heading-increment"}}),
		Clock:   fixedClock(1700000000),
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Findings) != 0 {
		t.Fatalf("expected the directive to drop the finding, got %+v", result.Findings)
	}
	if result.Suppressed != 1 {
		t.Fatalf("expected 1 suppressed finding, got %d", result.Suppressed)
	}
	if result.Failed {
		t.Fatalf("suppressed findings must not fail the run")
	}
}

func TestLintSkipsRecordingUnchangedRuns(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{"guide.md": "# Guide\n"}
	storeMock := &mockStore{}

	deps := lint.OrchestratorDeps{
		Scanner:    &mockScanner{corpus: buildCorpus("/docs", "", files)},
		Rules:      newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Store:      storeMock,
		Clock:      fixedClock(1700000000),
		ConfigHash: "cfg-hash",
	}
	orchestrator := lint.NewOrchestrator(deps)
	req := lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError}

	if _, err := orchestrator.Lint(ctx, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(storeMock.runs) != 1 {
		t.Fatalf("expected the first run to be recorded, got %d", len(storeMock.runs))
	}

	// Same corpus, same config: the next run is a no-op for history.
	storeMock.latest = storeMock.runs[0]
	storeMock.hasLatest = true
	if _, err := orchestrator.Lint(ctx, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(storeMock.runs) != 1 {
		t.Fatalf("expected the unchanged run to be skipped, got %d records", len(storeMock.runs))
	}

	req.Force = true
	if _, err := orchestrator.Lint(ctx, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(storeMock.runs) != 2 {
		t.Fatalf("expected force to record the run, got %d records", len(storeMock.runs))
	}
}

func TestLintStoreFailureDoesNotFailTheRun(t *testing.T) {
	ctx := context.Background()
	loggerMock := &mockLogger{}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", map[string]string{"guide.md": "# Guide\n"})},
		Rules:   newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Store:   &mockStore{saveErr: errors.New("database locked")},
		Logger:  loggerMock,
		Clock:   fixedClock(1700000000),
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Failed {
		t.Fatalf("store failures must not fail the run")
	}
	if !loggerMock.has("warning", "failed to persist run") {
		t.Fatalf("expected a persistence warning, got %v", loggerMock.entries)
	}
}

func TestLintWritesEnabledReports(t *testing.T) {
	ctx := context.Background()
	markdownMock := &mockWriter{name: "report.md"}
	jsonMock := &mockWriter{name: "report.json"}
	sarifMock := &mockWriter{name: "report.sarif"}
	consoleMock := &mockConsole{}
	gitMock := &mockGit{branch: "main", commit: "abc1234"}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner:   &mockScanner{corpus: buildCorpus("/docs", "", map[string]string{"guide.md": "# Guide\n\n```sh\n"})},
		Rules:     newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Git:       gitMock,
		Markdown:  markdownMock,
		JSON:      jsonMock,
		SARIF:     sarifMock,
		Console:   consoleMock,
		Clock:     fixedClock(1700000000),
		OutputDir: "/tmp/reports",
		Tool:      domain.ToolInfo{Name: "dr", Version: "test"},
	})

	result, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{
		filepath.Join("/tmp/reports", "report.md"),
		filepath.Join("/tmp/reports", "report.json"),
		filepath.Join("/tmp/reports", "report.sarif"),
	}
	if len(result.ReportPaths) != 3 {
		t.Fatalf("expected 3 report paths, got %v", result.ReportPaths)
	}
	for i, path := range want {
		if result.ReportPaths[i] != path {
			t.Fatalf("report path %d: expected %q, got %q", i, path, result.ReportPaths[i])
		}
	}

	if len(markdownMock.artifacts) != 1 {
		t.Fatalf("expected one markdown artifact, got %d", len(markdownMock.artifacts))
	}
	report := markdownMock.artifacts[0].Report
	if report.RunID != result.RunID || len(report.Findings) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.GitBranch != "main" || report.GitCommit != "abc1234" {
		t.Fatalf("expected git metadata in the report, got %+v", report)
	}
	if report.Tool.Name != "dr" {
		t.Fatalf("expected tool info in the report, got %+v", report.Tool)
	}

	if len(consoleMock.reports) != 1 || consoleMock.reports[0].RunID != result.RunID {
		t.Fatalf("expected the report on the console, got %+v", consoleMock.reports)
	}
}

func TestLintWriterFailureFailsTheRun(t *testing.T) {
	ctx := context.Background()
	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner:  &mockScanner{corpus: buildCorpus("/docs", "", map[string]string{"guide.md": "# Guide\n"})},
		Rules:    newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Markdown: &mockWriter{name: "report.md", err: errors.New("disk full")},
		Clock:    fixedClock(1700000000),
	})

	_, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err == nil || !strings.Contains(err.Error(), "write markdown report") {
		t.Fatalf("expected a report write error, got %v", err)
	}
}

func TestLintConsoleFailureIsOnlyAWarning(t *testing.T) {
	ctx := context.Background()
	loggerMock := &mockLogger{}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{corpus: buildCorpus("/docs", "", map[string]string{"guide.md": "# Guide\n"})},
		Rules:   newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Console: &mockConsole{err: errors.New("broken pipe")},
		Logger:  loggerMock,
		Clock:   fixedClock(1700000000),
	})

	if _, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !loggerMock.has("warning", "failed to render console summary") {
		t.Fatalf("expected a console warning, got %v", loggerMock.entries)
	}
}

func TestLintScanFailureAborts(t *testing.T) {
	ctx := context.Background()
	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner: &mockScanner{err: errors.New("permission denied")},
		Rules:   newEngine(t, rules.Config{}),
	})

	_, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError})
	if err == nil || !strings.Contains(err.Error(), "scan corpus") {
		t.Fatalf("expected a scan error, got %v", err)
	}
}

func TestLintDescribeFailureLeavesMetadataEmpty(t *testing.T) {
	ctx := context.Background()
	loggerMock := &mockLogger{}
	markdownMock := &mockWriter{name: "report.md"}

	orchestrator := lint.NewOrchestrator(lint.OrchestratorDeps{
		Scanner:  &mockScanner{corpus: buildCorpus("/docs", "", map[string]string{"guide.md": "# Guide\n"})},
		Rules:    newEngine(t, rules.Config{Only: []string{"fence-closure"}}),
		Git:      &mockGit{describeErr: errors.New("detached worktree")},
		Markdown: markdownMock,
		Logger:   loggerMock,
		Clock:    fixedClock(1700000000),
	})

	if _, err := orchestrator.Lint(ctx, lint.LintRequest{Dir: "/docs", FailOn: domain.SeverityError}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	report := markdownMock.artifacts[0].Report
	if report.GitBranch != "" || report.GitCommit != "" {
		t.Fatalf("expected empty git metadata, got %+v", report)
	}
	if !loggerMock.has("warning", "failed to describe repository") {
		t.Fatalf("expected a describe warning, got %v", loggerMock.entries)
	}
}
