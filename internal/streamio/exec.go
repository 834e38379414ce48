// Package streamio adapts a spawned local command to the stream.Stream
// contract, generalizing the teacher's RunCommandWithPTY (which attached
// a PTY to an SSH session for ZMODEM transfers) to "a local command dialed
// as the peer" — zigcat's `-e` flag. Argv validation and the decision of
// whether to launch one belong to the CLI collaborator (out of scope per
// spec §1, "executing child processes"); this package only wires an
// *exec.Cmd, once constructed, into a Stream.
package streamio

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// ExecStream relays bytes to/from a child process's stdio (pipe mode) or
// its PTY (raw mode), mirroring the teacher's pty.Start/pty.Setsize use in
// internal/transfer/pty.go.
type ExecStream struct {
	cmd  *exec.Cmd
	rwc  io.ReadWriteCloser
	ptmx *os.File // non-nil only in PTY mode, so Resize has something to Setsize

	mu     sync.Mutex
	closed bool
}

// StartPTY launches cmd attached to a new pseudo-terminal, matching the
// teacher's RunCommandWithPTY path used for binary-transparent transfers.
func StartPTY(cmd *exec.Cmd, width, height int) (*ExecStream, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("start pty for %q: %w", cmd.Path, err)
	}
	if width > 0 && height > 0 {
		_ = pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	}
	return &ExecStream{cmd: cmd, rwc: ptmx, ptmx: ptmx}, nil
}

// StartPipe launches cmd connected via plain OS pipes instead of a PTY —
// the fallback the teacher uses when the session has no PTY available.
func StartPipe(cmd *exec.Cmd) (*ExecStream, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe for %q: %w", cmd.Path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe for %q: %w", cmd.Path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", cmd.Path, err)
	}
	return &ExecStream{cmd: cmd, rwc: &pipePair{w: stdin, r: stdout}}, nil
}

type pipePair struct {
	w io.WriteCloser
	r io.ReadCloser
}

func (p *pipePair) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePair) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePair) Close() error {
	werr := p.w.Close()
	rerr := p.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func (e *ExecStream) Read(buf []byte) (int, error)  { return e.rwc.Read(buf) }
func (e *ExecStream) Write(buf []byte) (int, error) { return e.rwc.Write(buf) }
func (e *ExecStream) Maintain() error               { return nil }

// Handle returns the PTY master's descriptor in PTY mode, or 0 in pipe
// mode (pipes are still readable/writable; the poll backend then falls
// back to treating the stream as always-ready, matching the teacher's
// io.Copy-based fallback when no PTY is available).
func (e *ExecStream) Handle() uintptr {
	if e.ptmx != nil {
		return e.ptmx.Fd()
	}
	return 0
}

// Resize propagates a terminal-resize event to the child's PTY, matching
// the teacher's winCh forwarding loop. A no-op in pipe mode.
func (e *ExecStream) Resize(width, height int) error {
	if e.ptmx == nil {
		return nil
	}
	return pty.Setsize(e.ptmx, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
}

func (e *ExecStream) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	cerr := e.rwc.Close()
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	_ = e.cmd.Wait()
	return cerr
}
