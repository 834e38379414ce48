// Package ttyutil detects TTY-backed file descriptors and toggles raw
// mode for local-edit sessions (spec §3/§4.D: local line editing only
// engages when stdin is a TTY). Grounded on the teacher's
// cmd/debug-tui/main.go raw-mode dance and internal/transfer's PTY
// descriptor handling.
package ttyutil

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// State is an opaque saved terminal state, returned by MakeRaw and
// consumed by Restore.
type State struct {
	fd  int
	old *term.State
}

// MakeRaw switches f into raw mode (no line buffering, no local echo,
// no signal generation) and returns a State that can restore the
// original settings.
func MakeRaw(f *os.File) (*State, error) {
	fd := int(f.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &State{fd: fd, old: old}, nil
}

// Restore returns the terminal to the state captured by MakeRaw. Safe to
// call with a nil State (no-op), so callers can defer it unconditionally
// after a MakeRaw call that might have failed upstream.
func Restore(s *State) error {
	if s == nil {
		return nil
	}
	return term.Restore(s.fd, s.old)
}

// Size returns the current terminal window size for f, falling back to
// 80x24 if the ioctl fails (e.g. f is not a terminal).
func Size(f *os.File) (width, height int) {
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 80, 24
	}
	return w, h
}
