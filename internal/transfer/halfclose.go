package transfer

import (
	"io"

	"github.com/stlalpha/zigcat/internal/stream"
)

// writeCloser is implemented by *net.TCPConn and *net.UnixConn; shutdownWrite
// uses it to half-close the write side without tearing down the read side.
type writeCloser interface {
	CloseWrite() error
}

// shutdownWrite best-effort half-closes st's write side (spec §4.B
// "Half-close semantics"). Streams with no half-close support (UDP,
// exec pipes) are left untouched; the caller only logs a failure, never
// treats it as fatal.
func shutdownWrite(st stream.Stream) error {
	wc, ok := unwrapWriteCloser(st)
	if !ok {
		return nil
	}
	return wc.CloseWrite()
}

// unwrapWriteCloser looks for a CloseWrite method on st directly, or on
// the connection it wraps if st embeds stream.Base.
func unwrapWriteCloser(st stream.Stream) (writeCloser, bool) {
	if wc, ok := st.(writeCloser); ok {
		return wc, true
	}
	if b, ok := st.(interface{ Unwrap() io.ReadWriteCloser }); ok {
		if wc, ok := b.Unwrap().(writeCloser); ok {
			return wc, true
		}
	}
	return nil, false
}
