package cli

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal checks if stdout is a TTY. Used to pick human log
// formatting for interactive runs and JSON when output is piped or the
// process runs under a supervisor.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
