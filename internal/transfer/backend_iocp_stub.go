//go:build !windows

package transfer

import "errors"

func iocpAvailable() bool { return false }

func runIOCP(*Session) error {
	return errors.New("transfer: IOCP backend is Windows-only")
}
