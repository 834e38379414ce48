//go:build !windows

package transfer

import "testing"

func TestBackendCandidates_PollIsAlwaysLastAndNeverFallsBack(t *testing.T) {
	st := &fakeStream{}
	s := newTestSession(st, Config{})

	for _, localEdit := range []bool{false, true} {
		candidates := s.backendCandidates(localEdit)
		if len(candidates) == 0 {
			t.Fatalf("expected at least the poll candidate")
		}
		last := candidates[len(candidates)-1]
		if last.name != "poll" {
			t.Fatalf("expected poll to be the final candidate, got %q", last.name)
		}
		if last.fallbackOnError {
			t.Fatalf("poll must not fall back further, it is the backstop")
		}
		for _, c := range candidates[:len(candidates)-1] {
			if !c.fallbackOnError {
				t.Fatalf("candidate %q before poll must allow fallback", c.name)
			}
		}
	}
}

func TestBackendCandidates_LocalEditSkipsIOURing(t *testing.T) {
	st := &fakeStream{}
	s := newTestSession(st, Config{})

	withEdit := s.backendCandidates(true)
	for _, c := range withEdit {
		if c.name == "io_uring" {
			t.Fatalf("io_uring must not be offered when local-edit mode is active")
		}
	}
}

func TestRunPoll_ReturnsNilWhenSessionAlreadyDone(t *testing.T) {
	// A session with both directions already closed is done before the
	// first iteration, so runPoll returns nil without polling.
	st := &fakeStream{}
	s := newTestSession(st, Config{})
	s.stdinClosed = true
	s.socketClosed = true

	if err := runPoll(s); err != nil {
		t.Fatalf("runPoll on an already-done session should return nil immediately, got %v", err)
	}
}
