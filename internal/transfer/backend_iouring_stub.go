//go:build !linux

package transfer

import "errors"

func ioURingAvailable() bool { return false }

func runIOURing(*Session) error {
	return errors.New("transfer: io_uring backend is Linux-only")
}
