// Package transfer implements the relay engine's event loop: it shuttles
// bytes between stdin/stdout and a Stream, applying direction gating,
// CRLF conversion, Telnet reply ordering, and side-channel sink fan-out.
// Grounded on the teacher's internal/transfer/pty.go (I/O plumbing,
// error-classification-on-copy style) and internal/telnetserver/telnet.go
// (read-modify-write loop shape), restructured into the single-threaded
// readiness loop spec'd for the engine rather than the teacher's
// goroutine-pair io.Copy.
package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/stlalpha/zigcat/internal/lineeditor"
	"github.com/stlalpha/zigcat/internal/sinks"
	"github.com/stlalpha/zigcat/internal/stream"
	"github.com/stlalpha/zigcat/internal/telnet"
)

// bufSize is the per-direction I/O buffer size.
const bufSize = 8192

// Config carries the engine's observable configuration, populated by the
// CLI collaborator from the matching fields of internal/netcfg.Config.
type Config struct {
	SendOnly    bool
	RecvOnly    bool
	CRLF        bool
	DelayMS     int
	IdleTimeout time.Duration
	CloseOnEOF  bool
	NoShutdown  bool
	HexDump     bool // route received bytes through the hex formatter to stdout instead of raw
	CP437       bool // peer terminal speaks CP437; translate at the stdout/stdin boundary
}

// Session is the transfer engine's per-connection state (spec §3
// "Transfer session state"). It is created fresh for each relayed
// connection and discarded on exit.
type Session struct {
	ID string

	cfg    Config
	stream stream.Stream

	stdin  readWriter
	stdout readWriter

	telnetConn *telnet.Conn // nil if Telnet is not enabled

	editor *lineeditor.Editor // nil unless local-edit mode is active

	outputSink *sinks.OutputSink
	hexSink    *sinks.HexSink

	canSend bool
	canRecv bool

	stdinClosed  bool
	socketClosed bool

	rbufStdin  [bufSize]byte
	rbufStream [bufSize]byte
}

// readWriter is the narrow stdin/stdout shape the engine needs; satisfied
// by *os.File in production and by pipes/buffers in tests.
type readWriter interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithTelnet routes the session's reads and writes through conn, a
// Telnet-decorated Conn the caller built around the session's stream
// (see peerStream). Half-close still targets the raw stream.
func WithTelnet(conn *telnet.Conn) Option {
	return func(s *Session) { s.telnetConn = conn }
}

// WithOutputSink attaches the raw-byte output logger.
func WithOutputSink(sink *sinks.OutputSink) Option {
	return func(s *Session) { s.outputSink = sink }
}

// WithHexSink attaches the hex-dump sink.
func WithHexSink(sink *sinks.HexSink) Option {
	return func(s *Session) { s.hexSink = sink }
}

// WithLocalEdit instantiates the cooked-mode line editor for this session
// (spec §4.B step 3: only meaningful when the caller has already confirmed
// local-edit mode was requested and stdin is a TTY). crlf selects the line
// terminator the editor emits on commit.
func WithLocalEdit(crlf lineeditor.CRLFMode) Option {
	return func(s *Session) { s.editor = lineeditor.New(crlf) }
}

// New creates a Session wired to the given stream and stdin/stdout pair.
func New(cfg Config, st stream.Stream, stdin, stdout readWriter, opts ...Option) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		cfg:     cfg,
		stream:  st,
		stdin:   stdin,
		stdout:  stdout,
		canSend: !cfg.RecvOnly,
		canRecv: !cfg.SendOnly,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// peerStream returns the stream the engine reads from/writes to: the
// Telnet-decorated Conn when Telnet is enabled, the raw Stream otherwise.
func (s *Session) peerStream() stream.Stream {
	if s.telnetConn != nil {
		return s.telnetConn
	}
	return s.stream
}

// done reports whether the session has nothing left to relay.
func (s *Session) done() bool {
	return s.stdinClosed && s.socketClosed
}

// fder is implemented by *os.File (stdin in production, either end of an
// os.Pipe in tests) so the poll/io_uring backends can obtain a descriptor
// without the Session depending on *os.File directly.
type fder interface {
	Fd() uintptr
}

// stdinHandle returns stdin's descriptor for readiness primitives, or 0 if
// stdin isn't descriptor-backed (a bare io.Reader in a test harness that
// never calls the poll/io_uring backends).
func (s *Session) stdinHandle() uintptr {
	if f, ok := s.stdin.(fder); ok {
		return f.Fd()
	}
	return 0
}

// readFromStdin reads one chunk from stdin into the session's stdin
// buffer and reports the result without interpreting it.
func (s *Session) readFromStdin() readResult {
	n, err := s.stdin.Read(s.rbufStdin[:])
	if err != nil && n == 0 {
		if isCleanEOF(err) {
			return readResult{n: 0, err: nil}
		}
		return readResult{err: err}
	}
	return readResult{n: n}
}

// readFromStream reads one chunk from the peer stream into the session's
// stream buffer and reports the result without interpreting it.
func (s *Session) readFromStream() readResult {
	n, err := s.peerStream().Read(s.rbufStream[:])
	if err != nil && n == 0 {
		if isCleanEOF(err) {
			return readResult{n: 0, err: nil}
		}
		return readResult{err: err}
	}
	return readResult{n: n}
}

// finish flushes both sinks, logging (not propagating) flush errors, per
// spec §4.B "On exit".
func (s *Session) finish() {
	if s.outputSink != nil {
		if err := s.outputSink.Flush(); err != nil {
			logFlushWarning("output", err)
		}
	}
	if s.hexSink != nil {
		if err := s.hexSink.Flush(); err != nil {
			logFlushWarning("hex", err)
		}
	}
}
