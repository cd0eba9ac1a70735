package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bkyoung/doc-reviewer/internal/rules"
)

// Config is the full tool configuration.
type Config struct {
	Corpus  CorpusConfig          `mapstructure:"corpus"`
	Rules   map[string]RuleConfig `mapstructure:"rules" validate:"dive"`
	Lint    LintConfig            `mapstructure:"lint"`
	Output  OutputConfig          `mapstructure:"output"`
	Store   StoreConfig           `mapstructure:"store"`
	Git     GitConfig             `mapstructure:"git"`
	Watch   WatchConfig           `mapstructure:"watch"`
	Logging LoggingConfig         `mapstructure:"logging"`
}

// CorpusConfig describes where the guides live and which files count.
type CorpusConfig struct {
	Root             string   `mapstructure:"root" validate:"required"`
	Index            string   `mapstructure:"index" validate:"required"`
	Include          []string `mapstructure:"include" validate:"min=1"`
	Exclude          []string `mapstructure:"exclude"`
	RespectGitignore bool     `mapstructure:"respect_gitignore"`
	IgnoreFile       string   `mapstructure:"ignore_file"`
	MaxFileBytes     int64    `mapstructure:"max_file_bytes" validate:"min=0"`
}

// RuleConfig is one rule's block under `rules:`. Option fields apply only
// to the rules that define them.
type RuleConfig struct {
	Enabled    *bool    `mapstructure:"enabled"`
	Severity   string   `mapstructure:"severity" validate:"omitempty,oneof=error warning info"`
	Similarity float64  `mapstructure:"similarity" validate:"omitempty,gt=0,lte=1"`
	Guides     string   `mapstructure:"guides"`
	Ordered    bool     `mapstructure:"ordered"`
	Exempt     []string `mapstructure:"exempt"`
	Sections   []string `mapstructure:"sections"`
}

// LintConfig tunes a lint run.
type LintConfig struct {
	FailOn   string `mapstructure:"fail_on" validate:"oneof=error warning info"`
	Workers  int    `mapstructure:"workers" validate:"min=0,max=64"`
	Baseline bool   `mapstructure:"baseline"`
}

// OutputConfig selects report formats and the output directory.
type OutputConfig struct {
	Directory string       `mapstructure:"directory" validate:"required"`
	Markdown  FormatConfig `mapstructure:"markdown"`
	JSON      FormatConfig `mapstructure:"json"`
	SARIF     FormatConfig `mapstructure:"sarif"`
	Render    string       `mapstructure:"render" validate:"oneof=auto always never"`
}

// FormatConfig toggles one report writer.
type FormatConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StoreConfig configures the history database.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// GitConfig configures change detection.
type GitConfig struct {
	Base string `mapstructure:"base"`
}

// WatchConfig configures continuous mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" validate:"min=0"`
	LogFile  string        `mapstructure:"log_file"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=human json"`
}

var validate = validator.New()

// Validate checks the effective configuration: struct tags first, then the
// checks tags cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if strings.ContainsAny(c.Corpus.Index, `/\`) {
		return fmt.Errorf("invalid configuration: corpus.index %q must be a file name, not a path", c.Corpus.Index)
	}
	known := make(map[string]bool, len(rules.KnownIDs()))
	for _, id := range rules.KnownIDs() {
		known[id] = true
	}
	for name := range c.Rules {
		if !known[name] {
			sorted := append([]string{}, rules.KnownIDs()...)
			sort.Strings(sorted)
			return fmt.Errorf("invalid configuration: unknown rule %q (known rules: %s)", name, strings.Join(sorted, ", "))
		}
	}
	return nil
}

// Merge combines configuration layers, prioritising the latter ones.
// String and slice fields overlay when non-zero; boolean toggles stay
// with the base unless the overlay turns them on, so callers that know a
// flag was explicitly set apply it directly instead.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Corpus = mergeCorpus(base.Corpus, overlay.Corpus)
	result.Rules = mergeRules(base.Rules, overlay.Rules)
	result.Lint = mergeLint(base.Lint, overlay.Lint)
	result.Output = mergeOutput(base.Output, overlay.Output)
	result.Store = mergeStore(base.Store, overlay.Store)
	result.Git = mergeGit(base.Git, overlay.Git)
	result.Watch = mergeWatch(base.Watch, overlay.Watch)
	result.Logging = mergeLogging(base.Logging, overlay.Logging)

	return result
}

func mergeCorpus(base, overlay CorpusConfig) CorpusConfig {
	result := base
	if overlay.Root != "" {
		result.Root = overlay.Root
	}
	if overlay.Index != "" {
		result.Index = overlay.Index
	}
	if len(overlay.Include) > 0 {
		result.Include = overlay.Include
	}
	if len(overlay.Exclude) > 0 {
		result.Exclude = overlay.Exclude
	}
	if overlay.RespectGitignore {
		result.RespectGitignore = overlay.RespectGitignore
	}
	if overlay.IgnoreFile != "" {
		result.IgnoreFile = overlay.IgnoreFile
	}
	if overlay.MaxFileBytes != 0 {
		result.MaxFileBytes = overlay.MaxFileBytes
	}
	return result
}

func mergeRules(base, overlay map[string]RuleConfig) map[string]RuleConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]RuleConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = mergeRule(result[key], value)
	}
	return result
}

func mergeRule(base, overlay RuleConfig) RuleConfig {
	result := base
	if overlay.Enabled != nil {
		result.Enabled = overlay.Enabled
	}
	if overlay.Severity != "" {
		result.Severity = overlay.Severity
	}
	if overlay.Similarity != 0 {
		result.Similarity = overlay.Similarity
	}
	if overlay.Guides != "" {
		result.Guides = overlay.Guides
	}
	if overlay.Ordered {
		result.Ordered = overlay.Ordered
	}
	if len(overlay.Exempt) > 0 {
		result.Exempt = overlay.Exempt
	}
	if len(overlay.Sections) > 0 {
		result.Sections = overlay.Sections
	}
	return result
}

func mergeLint(base, overlay LintConfig) LintConfig {
	result := base
	if overlay.FailOn != "" {
		result.FailOn = overlay.FailOn
	}
	if overlay.Workers != 0 {
		result.Workers = overlay.Workers
	}
	if overlay.Baseline {
		result.Baseline = overlay.Baseline
	}
	return result
}

func mergeOutput(base, overlay OutputConfig) OutputConfig {
	result := base
	if overlay.Directory != "" {
		result.Directory = overlay.Directory
	}
	if overlay.Render != "" {
		result.Render = overlay.Render
	}
	if overlay.Markdown.Enabled {
		result.Markdown = overlay.Markdown
	}
	if overlay.JSON.Enabled {
		result.JSON = overlay.JSON
	}
	if overlay.SARIF.Enabled {
		result.SARIF = overlay.SARIF
	}
	return result
}

func mergeStore(base, overlay StoreConfig) StoreConfig {
	result := base
	if overlay.Enabled {
		result.Enabled = overlay.Enabled
	}
	if overlay.Path != "" {
		result.Path = overlay.Path
	}
	return result
}

func mergeGit(base, overlay GitConfig) GitConfig {
	if overlay.Base != "" {
		return overlay
	}
	return base
}

func mergeWatch(base, overlay WatchConfig) WatchConfig {
	result := base
	if overlay.Debounce != 0 {
		result.Debounce = overlay.Debounce
	}
	if overlay.LogFile != "" {
		result.LogFile = overlay.LogFile
	}
	return result
}

func mergeLogging(base, overlay LoggingConfig) LoggingConfig {
	result := base
	if overlay.Level != "" {
		result.Level = overlay.Level
	}
	if overlay.Format != "" {
		result.Format = overlay.Format
	}
	return result
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
