package lint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bkyoung/doc-reviewer/internal/domain"
)

// BaselineRequest captures a request to rebuild the stored baseline.
type BaselineRequest struct {
	Dir        string
	RuleFilter []string
	SkipRules  []string
}

// BaselineResult reports what the rebuilt baseline covers.
type BaselineResult struct {
	Entries       int
	DocumentCount int
}

// Baseline relints the corpus and replaces the stored baseline with the
// fingerprints of every finding the pass produced. Findings silenced by
// in-document directives never reach the baseline; directive authors already
// accepted those in the source.
func (o *Orchestrator) Baseline(ctx context.Context, req BaselineRequest) (BaselineResult, error) {
	if err := o.validateDependencies(); err != nil {
		return BaselineResult{}, err
	}
	if o.deps.Store == nil {
		return BaselineResult{}, errors.New("baseline management requires the history store")
	}
	if req.Dir == "" {
		return BaselineResult{}, errors.New("corpus directory is required")
	}

	corpus, err := o.deps.Scanner.Scan(ctx, req.Dir)
	if err != nil {
		return BaselineResult{}, fmt.Errorf("scan corpus: %w", err)
	}

	docRules, corpusRules, err := o.selectRules(req.RuleFilter, req.SkipRules)
	if err != nil {
		return BaselineResult{}, err
	}

	inputs, _, err := o.evaluate(ctx, corpus, nil, docRules, corpusRules)
	if err != nil {
		return BaselineResult{}, err
	}

	// Fingerprints deliberately ignore line numbers, so distinct findings can
	// collapse into one entry. Dedupe before handing them to the store.
	now := o.deps.Clock()
	seen := make(map[domain.Fingerprint]bool, len(inputs))
	entries := make([]domain.BaselineEntry, 0, len(inputs))
	for _, input := range inputs {
		f := domain.NewFinding(input)
		if seen[f.Fingerprint()] {
			continue
		}
		seen[f.Fingerprint()] = true

		entry, err := domain.BaselineEntryFromFinding(f, now)
		if err != nil {
			o.logWarning(ctx, "skipping unbaselinable finding", map[string]interface{}{
				"rule":  f.Rule,
				"error": err.Error(),
			})
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Fingerprint < entries[j].Fingerprint
	})

	if err := o.deps.Store.ReplaceBaseline(ctx, entries); err != nil {
		return BaselineResult{}, fmt.Errorf("replace baseline: %w", err)
	}

	o.logInfo(ctx, "baseline updated", map[string]interface{}{
		"entries":   len(entries),
		"documents": len(corpus.Documents),
	})

	return BaselineResult{
		Entries:       len(entries),
		DocumentCount: len(corpus.Documents),
	}, nil
}

// ClearBaseline removes every stored baseline entry.
func (o *Orchestrator) ClearBaseline(ctx context.Context) error {
	if o.deps.Store == nil {
		return errors.New("baseline management requires the history store")
	}
	if err := o.deps.Store.ClearBaseline(ctx); err != nil {
		return fmt.Errorf("clear baseline: %w", err)
	}
	o.logInfo(ctx, "baseline cleared", nil)
	return nil
}
