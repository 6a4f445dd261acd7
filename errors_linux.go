//go:build linux

package ethtool

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isErrno maps kernel error numbers onto the os package's sentinel errors.
func isErrno(err, target error) bool {
	switch target {
	case os.ErrNotExist:
		// The queried interface is not supported by the ethtool APIs
		// (EOPNOTSUPP) or does not exist at all (ENODEV).
		return errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENODEV)
	case os.ErrPermission:
		return errors.Is(err, unix.EPERM)
	default:
		return false
	}
}
