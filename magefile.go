//go:build mage

package main

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName  = "dr"
	versionPkg  = "github.com/bkyoung/doc-reviewer/internal/version"
	mainPackage = "./cmd/dr"
)

var (
	// Default target executed when none is specified.
	Default = CI
)

// CI runs the standard pipeline: format, lint, test, build.
func CI() {
	mg.SerialDeps(Format, Lint, Test, Build)
}

// Format updates Go sources using gofmt.
func Format() error {
	return run("go", "fmt", "./...")
}

// Lint runs golangci-lint when installed, otherwise go vet.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err == nil {
		return run("golangci-lint", "run", "./...")
	}
	return run("go", "vet", "./...")
}

// Test runs the full suite with the race detector and coverage.
func Test() error {
	return run("go", "test", "-race", "-cover", "./...")
}

// Build compiles all packages, then the dr binary with version metadata.
func Build() error {
	if err := run("go", "build", "./..."); err != nil {
		return err
	}
	return run("go", "build", "-ldflags", ldflags(), "-o", binaryName, mainPackage)
}

// Install puts the dr binary on the GOPATH bin.
func Install() error {
	return run("go", "install", "-ldflags", ldflags(), mainPackage)
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binaryName)
}

func ldflags() string {
	parts := []string{
		fmt.Sprintf("-X %s.version=%s", versionPkg, resolveVersion()),
		fmt.Sprintf("-X %s.commit=%s", versionPkg, resolveCommit()),
		fmt.Sprintf("-X %s.date=%s", versionPkg, time.Now().UTC().Format(time.RFC3339)),
	}
	return strings.Join(parts, " ")
}

func run(cmd string, args ...string) error {
	if err := sh.RunV(cmd, args...); err != nil {
		return fmt.Errorf("%s %v: %w", cmd, args, err)
	}
	return nil
}

func resolveVersion() string {
	const defaultVersion = "v0.0.0"

	tag, err := gitOutput("describe", "--tags", "--abbrev=0")
	if err != nil {
		return defaultVersion
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return defaultVersion
	}

	if repoDirty() || !headMatchesTag() {
		return tag + "-dirty"
	}
	return tag
}

func resolveCommit() string {
	out, err := gitOutput("rev-parse", "--short", "HEAD")
	if err != nil {
		return "none"
	}
	return strings.TrimSpace(out)
}

func repoDirty() bool {
	output, err := gitOutput("status", "--porcelain")
	if err != nil {
		return false
	}
	return strings.TrimSpace(output) != ""
}

func headMatchesTag() bool {
	_, err := gitOutput("describe", "--tags", "--exact-match")
	return err == nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return stdout.String(), nil
}
