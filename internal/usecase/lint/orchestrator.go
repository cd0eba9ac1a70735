package lint

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/fingerprint"
	"github.com/bkyoung/doc-reviewer/internal/markdown"
	"github.com/bkyoung/doc-reviewer/internal/rules"
)

// Scanner abstracts corpus discovery and parsing.
type Scanner interface {
	// Scan walks dir and returns the parsed corpus. An empty corpus is a
	// valid result; an unreadable document is an error.
	Scan(ctx context.Context, dir string) (*markdown.Corpus, error)
}

// Git abstracts repository queries for change detection and run metadata.
type Git interface {
	// ChangedPaths returns corpus-relative paths that differ from baseRef,
	// committed or not. Deleted paths are included; callers filter against
	// the scanned corpus.
	ChangedPaths(ctx context.Context, baseRef string) ([]string, error)

	// Describe returns the checked-out branch name ("detached" when no
	// branch is checked out) and the short commit hash.
	Describe(ctx context.Context) (branch, commit string, err error)
}

// MarkdownWriter persists the human-readable report to disk.
type MarkdownWriter interface {
	Write(ctx context.Context, artifact domain.ReportArtifact) (string, error)
}

// JSONWriter persists the machine-readable report to disk.
type JSONWriter interface {
	Write(ctx context.Context, artifact domain.ReportArtifact) (string, error)
}

// SARIFWriter persists the report to disk in SARIF format.
type SARIFWriter interface {
	Write(ctx context.Context, artifact domain.ReportArtifact) (string, error)
}

// Console renders a report summary to the user's terminal.
type Console interface {
	Print(report domain.Report) error
}

// Store defines the outbound port for persisting run history and baselines.
type Store interface {
	// Run management
	SaveRun(ctx context.Context, run StoreRun, findings []StoreFinding) error
	ListRuns(ctx context.Context, limit int) ([]StoreRun, error)
	LatestRun(ctx context.Context) (StoreRun, bool, error)

	// Baseline management
	LoadBaseline(ctx context.Context) ([]domain.BaselineEntry, error)
	ReplaceBaseline(ctx context.Context, entries []domain.BaselineEntry) error
	ClearBaseline(ctx context.Context) error

	// Utility
	Close() error
}

// StoreRun represents a lint run for persistence.
type StoreRun struct {
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

// StoreFinding represents a finding record for persistence.
type StoreFinding struct {
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

// Clock supplies the current time. Injected so tests can pin run IDs and
// report timestamps.
type Clock func() time.Time

// OrchestratorDeps captures the inbound dependencies for the orchestrator.
type OrchestratorDeps struct {
	Scanner  Scanner
	Rules    *rules.Engine
	Git      Git            // Optional: change detection and run metadata
	Store    Store          // Optional: run history and baseline persistence
	Markdown MarkdownWriter // Optional: markdown report output
	JSON     JSONWriter     // Optional: JSON report output
	SARIF    SARIFWriter    // Optional: SARIF report output
	Console  Console        // Optional: terminal summary rendering
	Logger   Logger         // Optional: structured logging for warnings and info
	Clock    Clock          // Optional: defaults to time.Now

	OutputDir  string          // Directory report files are written into
	ConfigHash string          // Hash of the effective configuration, recorded per run
	Workers    int             // Concurrent rule evaluations; 0 means GOMAXPROCS
	Tool       domain.ToolInfo // Identifies the tool in reports
}

// LintRequest represents an inbound CLI request.
type LintRequest struct {
	Dir         string
	ChangedOnly bool
	BaseRef     string
	FailOn      domain.Severity
	UseBaseline bool
	RuleFilter  []string // when non-empty, run only these rules
	SkipRules   []string
	Force       bool // record the run even when nothing changed since the last one
}

// LintResult captures the orchestrator outcome.
type LintResult struct {
	RunID         string
	Findings      []domain.Finding
	Suppressed    int
	DocumentCount int
	ReportPaths   []string
	Failed        bool
}

// Orchestrator implements the core lint flow.
type Orchestrator struct {
	deps OrchestratorDeps
}

// NewOrchestrator wires the orchestrator dependencies.
// If Clock is not provided, time.Now is used.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Orchestrator{deps: deps}
}

// validateDependencies checks that all required dependencies are present.
func (o *Orchestrator) validateDependencies() error {
	if o.deps.Scanner == nil {
		return errors.New("scanner is required")
	}
	if o.deps.Rules == nil {
		return errors.New("rule engine is required")
	}
	if o.deps.Clock == nil {
		return errors.New("clock is required (use NewOrchestrator for auto-wiring)")
	}
	// Git is optional
	// Store is optional
	// Writers, Console, and Logger are optional
	return nil
}

func validateRequest(req LintRequest) error {
	if req.Dir == "" {
		return errors.New("corpus directory is required")
	}
	if !req.FailOn.IsValid() {
		return fmt.Errorf("unknown fail-on severity %q", string(req.FailOn))
	}
	if req.ChangedOnly && req.BaseRef == "" {
		return errors.New("changed-only lint requires a base ref")
	}
	return nil
}

// Lint executes one lint pass over the corpus at req.Dir: scan, run the
// rules, apply suppressions, persist the run, and write reports.
func (o *Orchestrator) Lint(ctx context.Context, req LintRequest) (LintResult, error) {
	if err := o.validateDependencies(); err != nil {
		return LintResult{}, err
	}
	if err := validateRequest(req); err != nil {
		return LintResult{}, err
	}

	start := o.deps.Clock()

	corpus, err := o.deps.Scanner.Scan(ctx, req.Dir)
	if err != nil {
		return LintResult{}, fmt.Errorf("scan corpus: %w", err)
	}
	if len(corpus.Documents) == 0 {
		o.logInfo(ctx, "corpus contains no markdown documents", map[string]interface{}{
			"dir": req.Dir,
		})
	}

	// Change detection narrows which documents the per-document rules see.
	// Corpus-wide rules always see everything, otherwise cross-file checks
	// would report against a corpus that does not exist.
	var changed map[string]bool
	if req.ChangedOnly {
		if o.deps.Git == nil {
			return LintResult{}, errors.New("changed-only lint requires a git repository")
		}
		paths, err := o.deps.Git.ChangedPaths(ctx, req.BaseRef)
		if err != nil {
			return LintResult{}, fmt.Errorf("detect changed paths: %w", err)
		}
		changed = make(map[string]bool, len(paths))
		for _, p := range paths {
			changed[p] = true
		}
	}

	docRules, corpusRules, err := o.selectRules(req.RuleFilter, req.SkipRules)
	if err != nil {
		return LintResult{}, err
	}

	inputs, sourceSuppressed, err := o.evaluate(ctx, corpus, changed, docRules, corpusRules)
	if err != nil {
		return LintResult{}, err
	}

	findings := make([]domain.Finding, 0, len(inputs))
	for _, input := range inputs {
		findings = append(findings, domain.NewFinding(input))
	}

	suppressed := sourceSuppressed
	if req.UseBaseline && o.deps.Store != nil {
		suppressed += o.applyBaseline(ctx, findings)
	}

	domain.SortFindings(findings)

	failed := false
	if max, ok := domain.MaxActiveSeverity(findings); ok {
		failed = max.AtLeast(req.FailOn)
	}

	corpusHash := fingerprint.Corpus(corpus)
	unchanged, previousID := o.previousRunMatches(ctx, corpusHash)
	if unchanged {
		o.logInfo(ctx, "corpus and configuration unchanged since previous run", map[string]interface{}{
			"previousRunID": previousID,
		})
	}

	now := o.deps.Clock()
	runID := generateRunID(now, corpus.Root)
	branch, commit := o.describeRepository(ctx)

	report := domain.Report{
		RunID:           runID,
		GeneratedAt:     now,
		Tool:            o.deps.Tool,
		CorpusDir:       corpus.Root,
		GitBranch:       branch,
		GitCommit:       commit,
		DocumentCount:   len(corpus.Documents),
		Findings:        findings,
		SuppressedCount: suppressed,
		FailOn:          req.FailOn,
		Failed:          failed,
	}

	if o.deps.Store != nil {
		if unchanged && !req.Force {
			o.logDebug(ctx, "run not recorded, matches previous run", map[string]interface{}{
				"previousRunID": previousID,
			})
		} else {
			run := buildStoreRun(report, corpusHash, o.deps.ConfigHash, o.deps.Clock().Sub(start))
			if err := o.deps.Store.SaveRun(ctx, run, buildStoreFindings(runID, findings)); err != nil {
				// Log warning but continue - store failures shouldn't break lints
				o.logWarning(ctx, "failed to persist run", map[string]interface{}{
					"runID": runID,
					"error": err.Error(),
				})
			}
		}
	}

	artifact := domain.ReportArtifact{OutputDir: o.deps.OutputDir, Report: report}
	var reportPaths []string
	if o.deps.Markdown != nil {
		path, err := o.deps.Markdown.Write(ctx, artifact)
		if err != nil {
			return LintResult{}, fmt.Errorf("write markdown report: %w", err)
		}
		reportPaths = append(reportPaths, path)
	}
	if o.deps.JSON != nil {
		path, err := o.deps.JSON.Write(ctx, artifact)
		if err != nil {
			return LintResult{}, fmt.Errorf("write json report: %w", err)
		}
		reportPaths = append(reportPaths, path)
	}
	if o.deps.SARIF != nil {
		path, err := o.deps.SARIF.Write(ctx, artifact)
		if err != nil {
			return LintResult{}, fmt.Errorf("write sarif report: %w", err)
		}
		reportPaths = append(reportPaths, path)
	}

	if o.deps.Console != nil {
		if err := o.deps.Console.Print(report); err != nil {
			o.logWarning(ctx, "failed to render console summary", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return LintResult{
		RunID:         runID,
		Findings:      findings,
		Suppressed:    suppressed,
		DocumentCount: len(corpus.Documents),
		ReportPaths:   reportPaths,
		Failed:        failed,
	}, nil
}

// selectRules resolves the per-request rule filter against the engine's
// enabled rules. Filtering a rule the configuration disabled is a no-op,
// not an error; naming a rule that does not exist is.
func (o *Orchestrator) selectRules(only, skip []string) ([]rules.DocumentRule, []rules.CorpusRule, error) {
	valid := make(map[string]bool)
	for _, id := range rules.KnownIDs() {
		valid[id] = true
	}
	for _, id := range append(append([]string{}, only...), skip...) {
		if !valid[id] {
			names := append([]string{}, rules.KnownIDs()...)
			sort.Strings(names)
			return nil, nil, fmt.Errorf("unknown rule %q (known rules: %s)", id, strings.Join(names, ", "))
		}
	}

	onlySet := make(map[string]bool, len(only))
	for _, id := range only {
		onlySet[id] = true
	}
	skipSet := make(map[string]bool, len(skip))
	for _, id := range skip {
		skipSet[id] = true
	}
	keep := func(id string) bool {
		if skipSet[id] {
			return false
		}
		return len(onlySet) == 0 || onlySet[id]
	}

	var docRules []rules.DocumentRule
	for _, r := range o.deps.Rules.DocumentRules() {
		if keep(r.Meta().ID) {
			docRules = append(docRules, r)
		}
	}
	var corpusRules []rules.CorpusRule
	for _, r := range o.deps.Rules.CorpusRules() {
		if keep(r.Meta().ID) {
			corpusRules = append(corpusRules, r)
		}
	}
	return docRules, corpusRules, nil
}

// evaluate fans the document rules out over every (document, rule) pair,
// then runs the corpus rules, both under the configured concurrency limit.
// Corpus rules wait for the document pass so the two never interleave.
// Findings silenced by in-document directives are dropped here and counted.
func (o *Orchestrator) evaluate(ctx context.Context, corpus *markdown.Corpus, changed map[string]bool, docRules []rules.DocumentRule, corpusRules []rules.CorpusRule) ([]domain.FindingInput, int, error) {
	workers := o.deps.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu        sync.Mutex
		collected []domain.FindingInput
		dropped   = make(map[string]int)
	)
	merge := func(kept []domain.FindingInput, hidden map[string]int) {
		mu.Lock()
		collected = append(collected, kept...)
		for file, n := range hidden {
			dropped[file] += n
		}
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, doc := range corpus.Documents {
		if changed != nil && !changed[doc.Path] {
			continue
		}
		for _, rule := range docRules {
			doc, rule := doc, rule
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				kept, hidden := filterSuppressed(corpus, o.checkDocument(gctx, rule, doc))
				merge(kept, hidden)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rule := range corpusRules {
		rule := rule
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			kept, hidden := filterSuppressed(corpus, o.checkCorpus(gctx, rule, corpus))
			merge(kept, hidden)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	files := make([]string, 0, len(dropped))
	for file := range dropped {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		total += dropped[file]
		o.logDebug(ctx, "directives suppressed findings", map[string]interface{}{
			"document": file,
			"count":    dropped[file],
		})
	}
	return collected, total, nil
}

// checkDocument runs one rule over one document. A panicking rule is
// reported as an error finding against that rule instead of killing the run.
func (o *Orchestrator) checkDocument(ctx context.Context, rule rules.DocumentRule, doc *markdown.Document) (inputs []domain.FindingInput) {
	defer func() {
		if r := recover(); r != nil {
			id := rule.Meta().ID
			o.logError(ctx, "rule panicked", map[string]interface{}{
				"rule":     id,
				"document": doc.Path,
				"panic":    fmt.Sprint(r),
			})
			inputs = []domain.FindingInput{{
				File:     doc.Path,
				Rule:     id,
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("Rule %s panicked while checking this document: %v", id, r),
			}}
		}
	}()
	return rule.CheckDocument(doc)
}

func (o *Orchestrator) checkCorpus(ctx context.Context, rule rules.CorpusRule, corpus *markdown.Corpus) (inputs []domain.FindingInput) {
	defer func() {
		if r := recover(); r != nil {
			id := rule.Meta().ID
			o.logError(ctx, "rule panicked", map[string]interface{}{
				"rule":  id,
				"panic": fmt.Sprint(r),
			})
			inputs = []domain.FindingInput{{
				Rule:     id,
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("Rule %s panicked while checking the corpus: %v", id, r),
			}}
		}
	}()
	return rule.CheckCorpus(corpus)
}

// filterSuppressed drops findings silenced by in-document directives and
// counts the drops per document.
func filterSuppressed(corpus *markdown.Corpus, inputs []domain.FindingInput) (kept []domain.FindingInput, dropped map[string]int) {
	for _, input := range inputs {
		if suppressedAtSource(corpus, input) {
			if dropped == nil {
				dropped = make(map[string]int)
			}
			dropped[input.File]++
			continue
		}
		kept = append(kept, input)
	}
	return kept, dropped
}

// suppressedAtSource reports whether a directive in the finding's own
// document silences it. Whole-document findings (line 0) honor directives
// placed on the first line, so a top-of-file dr:disable covers them.
func suppressedAtSource(corpus *markdown.Corpus, input domain.FindingInput) bool {
	doc, ok := corpus.Document(input.File)
	if !ok {
		return false
	}
	line := input.LineStart
	if line == 0 {
		line = 1
	}
	return doc.Suppressions().Suppressed(input.Rule, line)
}

// applyBaseline marks findings covered by the stored baseline as suppressed
// and returns how many it marked. A failing store degrades to an empty
// baseline with a warning.
func (o *Orchestrator) applyBaseline(ctx context.Context, findings []domain.Finding) int {
	entries, err := o.deps.Store.LoadBaseline(ctx)
	if err != nil {
		o.logWarning(ctx, "failed to load baseline", map[string]interface{}{
			"error": err.Error(),
		})
		return 0
	}
	baseline := domain.NewBaseline(entries)
	if baseline.Len() == 0 {
		return 0
	}

	marked := 0
	for i := range findings {
		if baseline.Covers(findings[i].Fingerprint()) {
			findings[i].Suppressed = true
			marked++
		}
	}
	return marked
}

// previousRunMatches reports whether the most recent stored run saw the
// same corpus and configuration.
func (o *Orchestrator) previousRunMatches(ctx context.Context, corpusHash string) (bool, string) {
	if o.deps.Store == nil {
		return false, ""
	}
	prev, ok, err := o.deps.Store.LatestRun(ctx)
	if err != nil {
		o.logWarning(ctx, "failed to read previous run", map[string]interface{}{
			"error": err.Error(),
		})
		return false, ""
	}
	if !ok || prev.CorpusHash != corpusHash || prev.ConfigHash != o.deps.ConfigHash {
		return false, ""
	}
	return true, prev.RunID
}

func (o *Orchestrator) describeRepository(ctx context.Context) (branch, commit string) {
	if o.deps.Git == nil {
		return "", ""
	}
	branch, commit, err := o.deps.Git.Describe(ctx)
	if err != nil {
		o.logWarning(ctx, "failed to describe repository", map[string]interface{}{
			"error": err.Error(),
		})
		return "", ""
	}
	return branch, commit
}
