package sinks

import (
	"os"
	"sync"
)

// OutputSink appends raw received bytes to a file, matching spec §4.E/§6.
// An empty-path sink is silent — Write is a no-op — so callers needn't branch
// on whether logging was requested.
type OutputSink struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	append   bool
	disabled bool
}

// OpenOutputSink opens path in truncate or append mode. An empty path
// returns a silent sink.
func OpenOutputSink(path string, append bool) (*OutputSink, error) {
	if path == "" {
		return &OutputSink{}, nil
	}
	flags := os.O_WRONLY | os.O_CREATE
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, classifyOpen(path, err)
	}
	return &OutputSink{f: f, path: path, append: append}, nil
}

// Reopen closes and reopens the sink's backing file in place, clearing
// any disabled state. It is the reopen hook a FlushScheduler directory
// watch calls once a sink's target path appears. A no-op on a silent
// (no-path) sink.
func (s *OutputSink) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	if s.f != nil {
		s.f.Close()
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		s.f = nil
		return classifyOpen(s.path, err)
	}
	s.f = f
	s.disabled = false
	return nil
}

// Write appends bytes to the sink. It is a silent no-op if the sink has
// no backing file or has already been disabled after a fatal error.
func (s *OutputSink) Write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil || s.disabled {
		return nil
	}
	if _, err := s.f.Write(b); err != nil {
		s.disabled = true
		return classifyWrite(err)
	}
	return nil
}

// Flush requests durable write-through, matching spec §4.E.
func (s *OutputSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil || s.disabled {
		return nil
	}
	if err := s.f.Sync(); err != nil {
		return classifyWrite(err)
	}
	return nil
}

// Close releases the backing file, if any.
func (s *OutputSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// Disabled reports whether the sink stopped accepting writes after a
// fatal error, per spec §7's "disable for the remainder of the session".
func (s *OutputSink) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}
