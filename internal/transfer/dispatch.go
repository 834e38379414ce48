package transfer

import "github.com/stlalpha/zigcat/internal/zlog"

// backendFunc is the shape every backend's run loop implements: drive the
// session to completion (both sides closed, idle timeout, or an
// unrecoverable error), sharing handleStdinRead/handleStreamRead so all
// three backends observe identical semantics (spec §4.B "Common
// contract").
type backendFunc func(*Session) error

// Run dispatches to a backend in this priority order: (1) io_uring when
// available and local-edit mode is not active, (2) IOCP on Windows, (3)
// POSIX poll. There is no select-based backend; poll is the last
// candidate. A backend that
// fails to initialize or errors before doing any useful work falls back
// to poll, the reference implementation.
func (s *Session) Run(localEditActive bool) error {
	defer s.finish()

	for _, candidate := range s.backendCandidates(localEditActive) {
		err := candidate.fn(s)
		if err == nil || err == errIdleTimeout {
			return err
		}
		if !candidate.fallbackOnError {
			return err
		}
		zlog.Warn("%s backend failed to run (%v), falling back to poll", candidate.name, err)
	}
	return runPoll(s)
}

type backendCandidate struct {
	name            string
	fn              backendFunc
	fallbackOnError bool
}

// backendCandidates returns the ordered list this platform will try. The
// final poll candidate never sets fallbackOnError — there is nowhere left
// to fall back to.
func (s *Session) backendCandidates(localEditActive bool) []backendCandidate {
	var out []backendCandidate
	if ioURingAvailable() && !localEditActive {
		out = append(out, backendCandidate{name: "io_uring", fn: runIOURing, fallbackOnError: true})
	}
	if iocpAvailable() {
		out = append(out, backendCandidate{name: "iocp", fn: runIOCP, fallbackOnError: true})
	}
	out = append(out, backendCandidate{name: "poll", fn: runPoll, fallbackOnError: false})
	return out
}
