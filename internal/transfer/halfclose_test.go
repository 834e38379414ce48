package transfer

import (
	"io"
	"testing"

	"github.com/stlalpha/zigcat/internal/stream"
)

// noHalfClose satisfies stream.Stream but has no CloseWrite, the shape of
// UDP datagrams and exec pipes per spec §4.B.
type noHalfClose struct{ fakeStream }

func TestShutdownWrite_NoSupport_ReturnsNilNotError(t *testing.T) {
	st := &noHalfClose{}
	if err := shutdownWrite(st); err != nil {
		t.Fatalf("expected nil for a stream with no half-close support, got %v", err)
	}
}

// directCloseWriter implements CloseWrite directly on the Stream itself.
type directCloseWriter struct {
	fakeStream
	closed bool
}

func (d *directCloseWriter) CloseWrite() error {
	d.closed = true
	return nil
}

func TestShutdownWrite_DirectImplementation(t *testing.T) {
	st := &directCloseWriter{}
	if err := shutdownWrite(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.closed {
		t.Fatalf("expected CloseWrite to be invoked")
	}
}

// rwcCloseWriter is an io.ReadWriteCloser that supports CloseWrite
// (mirroring *net.TCPConn); the test below wraps it in a stream.Base.
type rwcCloseWriter struct {
	io.ReadWriteCloser
	closed bool
}

func (r *rwcCloseWriter) CloseWrite() error {
	r.closed = true
	return nil
}

func TestShutdownWrite_ThroughBaseUnwrap(t *testing.T) {
	conn := &rwcCloseWriter{}
	base := &stream.Base{RWC: conn}
	if err := shutdownWrite(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conn.closed {
		t.Fatalf("expected the wrapped connection's CloseWrite to be invoked via Unwrap")
	}
}
