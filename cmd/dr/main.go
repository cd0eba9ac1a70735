package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bkyoung/doc-reviewer/internal/adapter/cli"
	"github.com/bkyoung/doc-reviewer/internal/adapter/corpus"
	"github.com/bkyoung/doc-reviewer/internal/adapter/git"
	"github.com/bkyoung/doc-reviewer/internal/adapter/observability"
	jsonout "github.com/bkyoung/doc-reviewer/internal/adapter/output/json"
	mdout "github.com/bkyoung/doc-reviewer/internal/adapter/output/markdown"
	"github.com/bkyoung/doc-reviewer/internal/adapter/output/sarif"
	storeAdapter "github.com/bkyoung/doc-reviewer/internal/adapter/store"
	"github.com/bkyoung/doc-reviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
	"github.com/bkyoung/doc-reviewer/internal/version"
)

// Keep the adapters honest about the ports they claim to implement.
var (
	_ lint.Scanner        = (*corpus.Scanner)(nil)
	_ lint.Git            = (*git.Engine)(nil)
	_ lint.Store          = (*storeAdapter.Bridge)(nil)
	_ lint.MarkdownWriter = (*mdout.Writer)(nil)
	_ lint.JSONWriter     = (*jsonout.Writer)(nil)
	_ lint.SARIFWriter    = (*sarif.Writer)(nil)
	_ lint.Console        = (*cli.Console)(nil)
	_ lint.Logger         = (*observability.Logger)(nil)
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCommand(cli.Dependencies{
		Args:      cli.Arguments{OutWriter: os.Stdout, ErrWriter: os.Stderr},
		Version:   version.Value(),
		BuildInfo: version.String(),
		OpenStore: openStore,
		NewLogger: buildLogger,
	})
	root.SetContext(ctx)

	err := root.Execute()
	switch {
	case err == nil, errors.Is(err, cli.ErrVersionRequested):
		return 0
	case errors.Is(err, cli.ErrLintFailed):
		return 1
	default:
		log.Println(err)
		return 2
	}
}

func openStore(path string) (lint.Store, error) {
	db, err := sqlite.NewStore(path)
	if err != nil {
		return nil, err
	}
	return storeAdapter.NewBridge(db), nil
}

func buildLogger(level, format, logFile string) (lint.Logger, func(), error) {
	logger, err := observability.NewLogger(observability.Options{
		Level:   level,
		Format:  format,
		LogFile: logFile,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}
