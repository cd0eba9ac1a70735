// Package version exposes build metadata injected at link time.
package version

import "fmt"

// Overridden via -ldflags at build time (see magefile.go).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Value returns the bare version string for this build.
func Value() string {
	return version
}

// String formats the full build description.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
