package transfer

import (
	"errors"
	"io"
)

// errIdleTimeout is returned by a backend's run loop when the readiness
// wait expires with no activity on either side (spec §5 "Cancellation &
// timeouts"). The engine treats it as a graceful termination, not a
// failure: callers that want to distinguish it from a hard I/O error can
// errors.Is against it.
var errIdleTimeout = errors.New("transfer: idle timeout")

// ErrIdleTimeout is errIdleTimeout, exported for callers outside the
// package (e.g. cmd/zigcat deciding on an exit code).
var ErrIdleTimeout = errIdleTimeout

// isCleanEOF reports whether err represents a clean end-of-stream, which
// the engine treats as zero bytes read rather than an error (Stream.Read's
// documented (0, nil) EOF convention, relaxed here to also accept the
// io.EOF a raw *os.File/net.Conn naturally returns).
func isCleanEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
