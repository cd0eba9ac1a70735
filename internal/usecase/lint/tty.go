package lint

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal. This is how the
// tool tells a user's terminal apart from a pipe or a CI runner.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY, indicating that output is
// displayed directly to a user rather than being piped or redirected.
// Console rendering uses this to decide between styled and plain output.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
