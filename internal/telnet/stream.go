package telnet

import (
	"fmt"

	"github.com/stlalpha/zigcat/internal/stream"
)

// SignalKind enumerates the local signals the maintenance callback
// translates into Telnet bytes when signal translation is enabled.
type SignalKind int

const (
	SignalNone SignalKind = iota
	SignalInterrupt       // Ctrl-C
	SignalSuspend         // Ctrl-Z
)

// ResizeSource is drained once per Maintain call for a pending
// terminal-resize event. It must be edge-sensitive: a call that finds
// nothing pending returns ok=false, and a resize that fires twice before
// being drained is coalesced to the latest value (spec §9).
type ResizeSource interface {
	DrainResize() (width, height int, ok bool)
}

// SignalSource is drained once per Maintain call for a pending Ctrl-C/
// Ctrl-Z event, with the same edge-sensitive, coalescing contract as
// ResizeSource.
type SignalSource interface {
	DrainSignal() (kind SignalKind, ok bool)
}

// Conn decorates an inner stream.Stream with Telnet protocol handling:
// Read strips and interprets IAC, Write escapes 0xFF, and Maintain polls
// the host's resize/signal event sources and turns them into outbound
// Telnet bytes. It never calls back into Stream.Read/Write of itself —
// only its own processor and the inner stream — avoiding the cyclic
// re-entrancy spec §9 warns about.
type Conn struct {
	inner     stream.Stream
	proc      *Processor
	resize    ResizeSource
	signal    SignalSource
	translate bool

	// readBuf is the scratch buffer Read uses to pull from inner; sized
	// once and reused, matching the engine's 8192-byte I/O buffers.
	readBuf []byte
	// pending holds App bytes decoded but not yet returned to the
	// caller, in case a single inner Read produced more App bytes than
	// the caller's buffer can hold in one call.
	pending []byte
}

// Wrap decorates inner with Telnet handling. Maintain() forwards resize
// events whenever resize is non-nil; enableSignalTranslation gates only
// the signal source. Pass nil sources to disable either independently
// (e.g. a non-TTY stdin has no resize events).
func Wrap(inner stream.Stream, cfg Config, resize ResizeSource, signal SignalSource, enableSignalTranslation bool) *Conn {
	return &Conn{
		inner:     inner,
		proc:      New(cfg),
		resize:    resize,
		signal:    signal,
		translate: enableSignalTranslation,
		readBuf:   make([]byte, 8192),
	}
}

// Processor exposes the underlying state machine, e.g. so the caller can
// send the initial negotiation bytes appropriate to client/server mode.
func (c *Conn) Processor() *Processor { return c.proc }

// SendRaw writes already-assembled Telnet command bytes (e.g. the initial
// negotiation helpers) directly to the inner stream, bypassing escaping —
// the caller is responsible for constructing valid Telnet bytes.
func (c *Conn) SendRaw(b []byte) error {
	_, err := c.inner.Write(b)
	return err
}

// Read pulls bytes from the inner stream, feeds them through the Telnet
// processor, writes any negotiation reply back to the peer immediately
// (spec §4.B's reply-ordering guarantee), and returns decoded application
// bytes to the caller.
func (c *Conn) Read(buf []byte) (int, error) {
	for len(c.pending) == 0 {
		n, err := c.inner.Read(c.readBuf)
		if n == 0 && err == nil {
			return 0, nil // upstream EOF
		}
		if n > 0 {
			res, perr := c.proc.Process(c.readBuf[:n])
			if len(res.Reply) > 0 {
				if _, werr := c.inner.Write(res.Reply); werr != nil {
					return 0, fmt.Errorf("telnet: writing negotiation reply: %w", werr)
				}
			}
			if perr != nil {
				return 0, perr
			}
			c.pending = res.App
		}
		if err != nil {
			if len(c.pending) > 0 {
				break // return what we decoded; surface err on next call
			}
			return 0, err
		}
	}

	n := copy(buf, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write escapes any 0xFF in buf and writes it to the inner stream.
func (c *Conn) Write(buf []byte) (int, error) {
	escaped := Escape(buf)
	if _, err := c.inner.Write(escaped); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (c *Conn) Close() error    { return c.inner.Close() }
func (c *Conn) Handle() uintptr { return c.inner.Handle() }

// Maintain drains the resize/signal sources and converts edge events into
// outbound Telnet bytes, per spec §4.C.
func (c *Conn) Maintain() error {
	if c.resize != nil {
		if w, h, ok := c.resize.DrainResize(); ok {
			if b := c.proc.UpdateWindowSize(w, h); len(b) > 0 {
				if _, err := c.inner.Write(b); err != nil {
					return fmt.Errorf("telnet: sending NAWS update: %w", err)
				}
			}
		}
	}
	if c.translate && c.signal != nil {
		if kind, ok := c.signal.DrainSignal(); ok {
			switch kind {
			case SignalInterrupt:
				if _, err := c.inner.Write(InterruptBytes()); err != nil {
					return fmt.Errorf("telnet: sending IAC IP: %w", err)
				}
			case SignalSuspend:
				if b, ok := c.proc.SuspendBytes(); ok {
					if _, err := c.inner.Write(b); err != nil {
						return fmt.Errorf("telnet: sending SUSP: %w", err)
					}
				}
			}
		}
	}
	return nil
}
