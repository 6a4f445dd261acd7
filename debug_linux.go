//go:build linux

package ethtool

import (
	"os"

	"golang.org/x/sys/unix"
)

// isTerminal reports whether f is attached to a terminal, in which case
// attribute dumps are colorized.
func isTerminal(f *os.File) bool {
	_, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	return err == nil
}
