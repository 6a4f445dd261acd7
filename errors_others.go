//go:build !linux

package ethtool

// isErrno always reports false: ethtool netlink only exists on Linux.
func isErrno(_, _ error) bool { return false }
