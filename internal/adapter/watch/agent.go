// Package watch re-lints the corpus whenever its files change. It wraps an
// fsnotify watcher with debouncing and content-hash deduplication so editor
// noise does not thrash the lint engine.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

// Directories never watched, mirroring the corpus scanner's skip list.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// Linter runs one lint pass per watch cycle.
type Linter interface {
	Lint(ctx context.Context, req lint.LintRequest) (lint.LintResult, error)
}

// Config tunes the watch agent.
type Config struct {
	// Root is the corpus directory to watch, recursively.
	Root string
	// Debounce is the quiet period before a re-lint. Zero means 500ms.
	Debounce time.Duration
	// Request is the lint request replayed every cycle.
	Request lint.LintRequest
	// IgnoreFile is the tool ignore file name; edits to it re-lint too.
	IgnoreFile string
}

// Agent watches the corpus and re-lints on changes.
type Agent struct {
	cfg       Config
	linter    Linter
	logger    lint.Logger
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	hashes    *hashTracker
	dirty     chan struct{}
	stopOnce  sync.Once
	loopDone  sync.WaitGroup
}

// NewAgent constructs a watch agent. The logger is optional.
func NewAgent(cfg Config, linter Linter, logger lint.Logger) (*Agent, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watch root is required")
	}
	if linter == nil {
		return nil, fmt.Errorf("linter is required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	a := &Agent{
		cfg:     cfg,
		linter:  linter,
		logger:  logger,
		watcher: watcher,
		hashes:  newHashTracker(),
		dirty:   make(chan struct{}, 1),
	}
	a.debouncer = newDebouncer(cfg.Debounce, a.markDirty)
	return a, nil
}

// Run watches until ctx is cancelled or Stop is called. An initial lint
// runs before the first event so the user sees the current state at once.
func (a *Agent) Run(ctx context.Context) error {
	a.loopDone.Add(1)
	defer a.loopDone.Done()

	if err := a.addWatchRecursive(a.cfg.Root); err != nil {
		return fmt.Errorf("add watch paths: %w", err)
	}

	a.cycle(ctx)

	for {
		select {
		case event, ok := <-a.watcher.Events:
			if !ok {
				return nil
			}
			a.handleEvent(event)

		case err, ok := <-a.watcher.Errors:
			if !ok {
				return nil
			}
			a.logWarning(ctx, "watcher error", map[string]interface{}{"error": err.Error()})

		case <-a.dirty:
			a.cycle(ctx)

		case <-ctx.Done():
			return nil
		}
	}
}

// Stop closes the watcher, stops pending timers, and waits for the Run
// loop to return. Idempotent.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() {
		a.debouncer.Stop()
		_ = a.watcher.Close()
	})
	a.loopDone.Wait()
}

// markDirty requests one re-lint. The channel holds a single pending
// request; further marks coalesce into it.
func (a *Agent) markDirty() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

// cycle runs one lint pass and logs a one-line result.
func (a *Agent) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	result, err := a.linter.Lint(ctx, a.cfg.Request)
	if err != nil {
		a.logWarning(ctx, "lint cycle failed", map[string]interface{}{"error": err.Error()})
		return
	}
	a.logInfo(ctx, "lint cycle complete", map[string]interface{}{
		"runID":     result.RunID,
		"documents": result.DocumentCount,
		"findings":  len(result.Findings),
		"failed":    result.Failed,
		"duration":  time.Since(start).Round(time.Millisecond).String(),
	})
}

func (a *Agent) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skippedDirs[name] && !strings.HasPrefix(name, ".") {
				_ = a.addWatchRecursive(event.Name)
				a.debouncer.Trigger()
			}
			return
		}
	}

	if !a.relevant(name) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		a.hashes.Remove(event.Name)
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if !a.hashes.HasChanged(event.Name) {
			return
		}
	default:
		// Chmod alone never changes lint results.
		return
	}

	a.debouncer.Trigger()
}

// relevant reports whether a change to the named file can affect the next
// lint cycle: Markdown documents and the ignore files the scanner re-reads
// each pass. Configuration is resolved once at startup, so config-file
// edits are deliberately not triggers; they need a restart to take effect.
func (a *Agent) relevant(name string) bool {
	if strings.EqualFold(filepath.Ext(name), ".md") {
		return true
	}
	return name == a.cfg.IgnoreFile || name == ".gitignore"
}

func (a *Agent) addWatchRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return a.watcher.Add(p)
	})
}

func (a *Agent) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.LogInfo(ctx, message, fields)
	}
}

func (a *Agent) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.LogWarning(ctx, message, fields)
	}
}
