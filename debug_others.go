//go:build !linux

package ethtool

import "os"

// isTerminal always reports false; attribute dumps are never colorized.
func isTerminal(_ *os.File) bool { return false }
