// Package cli wires the cobra command tree to the lint use case. Commands
// stay thin: flags resolve against configuration here, and everything else
// happens behind the usecase ports.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-reviewer/internal/adapter/corpus"
	"github.com/bkyoung/doc-reviewer/internal/adapter/git"
	jsonout "github.com/bkyoung/doc-reviewer/internal/adapter/output/json"
	mdout "github.com/bkyoung/doc-reviewer/internal/adapter/output/markdown"
	"github.com/bkyoung/doc-reviewer/internal/adapter/output/sarif"
	"github.com/bkyoung/doc-reviewer/internal/config"
	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/fingerprint"
	"github.com/bkyoung/doc-reviewer/internal/rules"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrLintFailed indicates the run completed but findings reached the
// fail-on threshold. main maps this to exit code 1.
var ErrLintFailed = errors.New("lint failed")

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI. OpenStore and
// NewLogger are factories so tests can run the command tree without a
// database or a real logger.
type Dependencies struct {
	Args Arguments

	// Version is the bare version string recorded in reports.
	Version string

	// BuildInfo is the full build description printed by --version; when
	// empty, Version is printed instead.
	BuildInfo string

	// ConfigPaths are extra directories searched for dr.yaml.
	ConfigPaths []string

	// OpenStore opens the history store at the given path. The returned
	// store is closed by the command that opened it. Nil disables history.
	OpenStore func(path string) (lint.Store, error)

	// NewLogger builds a logger for the given level, format, and optional
	// rotated log file. The returned func flushes buffered entries. Nil
	// disables logging.
	NewLogger func(level, format, logFile string) (lint.Logger, func(), error)
}

// session carries state resolved once in the persistent pre-run and shared
// by every subcommand: the effective configuration, its hash, and the
// logger built from it.
type session struct {
	cfg        config.Config
	configHash string
	logger     lint.Logger
	syncLogger func()
	quiet      bool
}

// NewRootCommand constructs the root cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.BuildInfo
	if versionString == "" {
		versionString = deps.Version
	}
	if versionString == "" {
		versionString = "dev"
	}

	root := &cobra.Command{
		Use:   "dr",
		Short: "Lint a corpus of Markdown best-practice guides",
		Long: "dr checks a directory of Markdown guides for structural problems:\n" +
			"malformed documents, broken cross-references, index drift, and\n" +
			"content that leaked in from the wrong kind of file.",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	var (
		configFile  string
		logLevel    string
		logFormat   string
		quiet       bool
		showVersion bool
	)
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: dr.yaml in . or ~/.config/dr)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: human or json (overrides config)")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the console summary")
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")

	sess := &session{}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}

		cfg, err := config.Load(config.LoaderOptions{
			ConfigFile:  configFile,
			ConfigPaths: deps.ConfigPaths,
			FileName:    "dr",
			EnvPrefix:   "DR",
		})
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Logging.Format = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		hash, err := fingerprint.Config(cfg)
		if err != nil {
			return fmt.Errorf("hash configuration: %w", err)
		}

		sess.cfg = cfg
		sess.configHash = hash
		sess.quiet = quiet

		if deps.NewLogger != nil {
			logger, syncFn, err := deps.NewLogger(cfg.Logging.Level, cfg.Logging.Format, "")
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			sess.logger = logger
			sess.syncLogger = syncFn
		}
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if sess.syncLogger != nil {
			sess.syncLogger()
		}
	}
	root.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}

	root.AddCommand(lintCommand(deps, sess))
	root.AddCommand(watchCommand(deps, sess))
	root.AddCommand(rulesCommand(sess))
	root.AddCommand(historyCommand(deps, sess))
	root.AddCommand(baselineCommand(deps, sess))
	root.AddCommand(newCommand(sess))

	return root
}

// runOptions are the per-command overrides applied on top of the session
// configuration when building an orchestrator.
type runOptions struct {
	outputDir  string
	formats    []string // markdown, json, sarif; empty keeps config toggles
	render     string
	workers    int
	console    bool
	needsStore bool // history and baseline refuse to run without one
}

// buildOrchestrator assembles the lint orchestrator for one command run.
// The returned cleanup closes the store; callers defer it.
func buildOrchestrator(deps Dependencies, sess *session, out io.Writer, dir string, opts runOptions) (*lint.Orchestrator, func(), error) {
	cfg := sess.cfg

	engine, err := rules.NewEngine(rules.Config{
		Index:    cfg.Corpus.Index,
		Settings: ruleSettings(cfg.Rules),
	})
	if err != nil {
		return nil, nil, err
	}

	scanner := corpus.NewScanner(nil, corpus.Options{
		Index:            cfg.Corpus.Index,
		Include:          cfg.Corpus.Include,
		Exclude:          cfg.Corpus.Exclude,
		RespectGitignore: cfg.Corpus.RespectGitignore,
		IgnoreFile:       cfg.Corpus.IgnoreFile,
		MaxFileBytes:     cfg.Corpus.MaxFileBytes,
	}, sess.logger)

	orchDeps := lint.OrchestratorDeps{
		Scanner:    scanner,
		Rules:      engine,
		Git:        git.NewEngine(dir),
		Logger:     sess.logger,
		ConfigHash: sess.configHash,
		Workers:    opts.workers,
		Tool:       domain.ToolInfo{Name: "doc-reviewer", Version: deps.Version},
	}
	if orchDeps.Workers == 0 {
		orchDeps.Workers = cfg.Lint.Workers
	}

	orchDeps.OutputDir = opts.outputDir
	if orchDeps.OutputDir == "" {
		orchDeps.OutputDir = cfg.Output.Directory
	}

	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	markdownOn, jsonOn, sarifOn := resolveFormats(cfg.Output, opts.formats)
	if markdownOn {
		orchDeps.Markdown = mdout.NewWriter(nowFunc)
	}
	if jsonOn {
		orchDeps.JSON = jsonout.NewWriter(nowFunc)
	}
	if sarifOn {
		orchDeps.SARIF = sarif.NewWriter(nowFunc, ruleDescriptors(engine))
	}

	if opts.console && !sess.quiet {
		render := opts.render
		if render == "" {
			render = cfg.Output.Render
		}
		orchDeps.Console = NewConsole(out, render)
	}

	cleanup := func() {}
	if opts.needsStore && (!cfg.Store.Enabled || deps.OpenStore == nil) {
		return nil, nil, errors.New("this command requires the history store; enable store.enabled in the config")
	}
	if cfg.Store.Enabled && deps.OpenStore != nil {
		store, err := deps.OpenStore(cfg.Store.Path)
		if err != nil {
			if opts.needsStore {
				return nil, nil, fmt.Errorf("open history store: %w", err)
			}
			// Lint still works without history; record why it is missing.
			if sess.logger != nil {
				sess.logger.LogWarning(context.Background(), "history store unavailable, run will not be recorded", map[string]interface{}{
					"path":  cfg.Store.Path,
					"error": err.Error(),
				})
			}
		} else {
			orchDeps.Store = store
			cleanup = func() { _ = store.Close() }
		}
	}

	return lint.NewOrchestrator(orchDeps), cleanup, nil
}

// ruleSettings converts the configuration rule blocks into engine settings.
func ruleSettings(cfg map[string]config.RuleConfig) map[string]rules.Settings {
	if len(cfg) == 0 {
		return nil
	}
	settings := make(map[string]rules.Settings, len(cfg))
	for id, rc := range cfg {
		settings[id] = rules.Settings{
			Enabled:    rc.Enabled,
			Severity:   rc.Severity,
			Similarity: rc.Similarity,
			Guides:     rc.Guides,
			Ordered:    rc.Ordered,
			Exempt:     rc.Exempt,
			Sections:   rc.Sections,
		}
	}
	return settings
}

func resolveFormats(cfg config.OutputConfig, override []string) (markdown, json, sarif bool) {
	if len(override) == 0 {
		return cfg.Markdown.Enabled, cfg.JSON.Enabled, cfg.SARIF.Enabled
	}
	for _, f := range override {
		switch f {
		case "markdown", "md":
			markdown = true
		case "json":
			json = true
		case "sarif":
			sarif = true
		}
	}
	return markdown, json, sarif
}

// validFormats rejects unknown --format values before any work happens.
func validFormats(override []string) error {
	for _, f := range override {
		switch f {
		case "markdown", "md", "json", "sarif":
		default:
			return fmt.Errorf("unknown report format %q (expected markdown, json, or sarif)", f)
		}
	}
	return nil
}

func ruleDescriptors(engine *rules.Engine) []sarif.RuleDescriptor {
	metas := engine.Metas()
	descriptors := make([]sarif.RuleDescriptor, len(metas))
	for i, meta := range metas {
		descriptors[i] = sarif.RuleDescriptor{ID: meta.ID, Summary: meta.Summary}
	}
	return descriptors
}

// corpusDir resolves the corpus directory: positional argument first, then
// configuration.
func corpusDir(args []string, cfg config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Corpus.Root
}

func parseFailOn(flagValue string, cfg config.Config) (domain.Severity, error) {
	value := flagValue
	if value == "" {
		value = cfg.Lint.FailOn
	}
	return domain.ParseSeverity(value)
}
