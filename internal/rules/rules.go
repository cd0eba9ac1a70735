// Package rules holds the lint rule catalog: document rules that examine
// one parsed guide, and corpus rules that examine the corpus as a whole.
// Rules are pure: no I/O, no panics on any document the scanner produces.
package rules

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bkyoung/doc-reviewer/internal/assets"
	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/markdown"
)

const (
	defaultIndex      = "README.md"
	defaultSimilarity = 0.90
	defaultGuideGlob  = "*-best-practices.md"
)

// KnownIDs lists the catalog rule IDs in order, document rules first.
func KnownIDs() []string {
	return []string{
		"fence-closure",
		"heading-increment",
		"title-structure",
		"fence-language",
		"secret-exposure",
		"index-references",
		"orphaned-guides",
		"relative-links",
		"duplicate-content",
		"template-structure",
	}
}

// RuleMeta describes one rule for catalogs and reports.
type RuleMeta struct {
	ID              string
	Summary         string
	DefaultSeverity domain.Severity
}

// finding builds a FindingInput attributed to this rule at its default
// severity. Severity overrides are applied by the engine wrapper.
func (m RuleMeta) finding(file string, start, end int, message, suggestion string) domain.FindingInput {
	return domain.FindingInput{
		File:       file,
		LineStart:  start,
		LineEnd:    end,
		Rule:       m.ID,
		Severity:   m.DefaultSeverity,
		Message:    message,
		Suggestion: suggestion,
	}
}

// DocumentRule examines a single parsed document.
type DocumentRule interface {
	Meta() RuleMeta
	CheckDocument(doc *markdown.Document) []domain.FindingInput
}

// CorpusRule examines the corpus as a whole.
type CorpusRule interface {
	Meta() RuleMeta
	CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput
}

// Settings is the per-rule configuration block. The zero value means rule
// defaults. Option fields apply only to the rules that define them.
type Settings struct {
	Enabled    *bool
	Severity   string
	Similarity float64
	Guides     string
	Ordered    bool
	Exempt     []string
	Sections   []string
}

// Config selects and tunes the rule set for one engine.
type Config struct {
	Index    string              // index document name, default README.md
	Settings map[string]Settings // keyed by rule ID
	Only     []string            // when non-empty, run exactly these rules
	Skip     []string            // rules to skip
}

// Engine is the configured, validated rule set.
type Engine struct {
	metas    []RuleMeta
	enabled  map[string]bool
	document []DocumentRule
	corpus   []CorpusRule
}

// NewEngine builds the rule set for cfg. Unknown rule names anywhere in
// the config fail fast with the list of known rules.
func NewEngine(cfg Config) (*Engine, error) {
	document, corpus, err := catalog(cfg)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	var metas []RuleMeta
	for _, r := range document {
		known[r.Meta().ID] = true
		metas = append(metas, r.Meta())
	}
	for _, r := range corpus {
		known[r.Meta().ID] = true
		metas = append(metas, r.Meta())
	}

	if err := checkNames(known, cfg); err != nil {
		return nil, err
	}

	enabled := make(map[string]bool, len(known))
	for id := range known {
		enabled[id] = true
	}
	for id, s := range cfg.Settings {
		if s.Enabled != nil {
			enabled[id] = *s.Enabled
		}
	}
	if len(cfg.Only) > 0 {
		for id := range enabled {
			enabled[id] = false
		}
		for _, id := range cfg.Only {
			enabled[id] = true
		}
	}
	for _, id := range cfg.Skip {
		enabled[id] = false
	}

	engine := &Engine{metas: metas, enabled: enabled}

	for _, r := range document {
		if !enabled[r.Meta().ID] {
			continue
		}
		wrapped, err := overrideDocumentSeverity(r, cfg.Settings[r.Meta().ID].Severity)
		if err != nil {
			return nil, err
		}
		engine.document = append(engine.document, wrapped)
	}
	for _, r := range corpus {
		if !enabled[r.Meta().ID] {
			continue
		}
		wrapped, err := overrideCorpusSeverity(r, cfg.Settings[r.Meta().ID].Severity)
		if err != nil {
			return nil, err
		}
		engine.corpus = append(engine.corpus, wrapped)
	}

	return engine, nil
}

// DocumentRules returns the enabled document rules in catalog order.
func (e *Engine) DocumentRules() []DocumentRule {
	return e.document
}

// CorpusRules returns the enabled corpus rules in catalog order.
func (e *Engine) CorpusRules() []CorpusRule {
	return e.corpus
}

// Metas returns the full catalog in order, enabled or not.
func (e *Engine) Metas() []RuleMeta {
	return e.metas
}

// Enabled reports whether the named rule will run.
func (e *Engine) Enabled(id string) bool {
	return e.enabled[id]
}

func catalog(cfg Config) ([]DocumentRule, []CorpusRule, error) {
	index := cfg.Index
	if index == "" {
		index = defaultIndex
	}

	dup := cfg.Settings["duplicate-content"]
	if dup.Similarity == 0 {
		dup.Similarity = defaultSimilarity
	}
	if dup.Similarity < 0 || dup.Similarity > 1 {
		return nil, nil, fmt.Errorf("duplicate-content: similarity %v out of range (0,1]", dup.Similarity)
	}

	tmpl := cfg.Settings["template-structure"]
	if tmpl.Guides == "" {
		tmpl.Guides = defaultGuideGlob
	}
	if _, err := path.Match(tmpl.Guides, "probe"); err != nil {
		return nil, nil, fmt.Errorf("template-structure: invalid guides glob %q", tmpl.Guides)
	}
	if len(tmpl.Sections) == 0 {
		tmpl.Sections = assets.TemplateSections()
	}

	document := []DocumentRule{
		fenceClosureRule{},
		headingIncrementRule{},
		titleStructureRule{},
		fenceLanguageRule{},
		newSecretExposureRule(),
	}

	corpus := []CorpusRule{
		indexReferencesRule{index: index},
		orphanedGuidesRule{exempt: cfg.Settings["orphaned-guides"].Exempt},
		relativeLinksRule{},
		duplicateContentRule{threshold: dup.Similarity},
		templateStructureRule{glob: tmpl.Guides, sections: tmpl.Sections, ordered: tmpl.Ordered},
	}

	return document, corpus, nil
}

func checkNames(known map[string]bool, cfg Config) error {
	check := func(id string) error {
		if known[id] {
			return nil
		}
		names := make([]string, 0, len(known))
		for name := range known {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown rule %q (known rules: %s)", id, strings.Join(names, ", "))
	}

	for id := range cfg.Settings {
		if err := check(id); err != nil {
			return err
		}
	}
	for _, id := range cfg.Only {
		if err := check(id); err != nil {
			return err
		}
	}
	for _, id := range cfg.Skip {
		if err := check(id); err != nil {
			return err
		}
	}
	return nil
}

type severityDocumentRule struct {
	DocumentRule
	severity domain.Severity
}

func (r severityDocumentRule) CheckDocument(doc *markdown.Document) []domain.FindingInput {
	inputs := r.DocumentRule.CheckDocument(doc)
	for i := range inputs {
		inputs[i].Severity = r.severity
	}
	return inputs
}

type severityCorpusRule struct {
	CorpusRule
	severity domain.Severity
}

func (r severityCorpusRule) CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput {
	inputs := r.CorpusRule.CheckCorpus(corpus)
	for i := range inputs {
		inputs[i].Severity = r.severity
	}
	return inputs
}

func overrideDocumentSeverity(r DocumentRule, severity string) (DocumentRule, error) {
	if severity == "" {
		return r, nil
	}
	parsed, err := domain.ParseSeverity(severity)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Meta().ID, err)
	}
	return severityDocumentRule{DocumentRule: r, severity: parsed}, nil
}

func overrideCorpusSeverity(r CorpusRule, severity string) (CorpusRule, error) {
	if severity == "" {
		return r, nil
	}
	parsed, err := domain.ParseSeverity(severity)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Meta().ID, err)
	}
	return severityCorpusRule{CorpusRule: r, severity: parsed}, nil
}
