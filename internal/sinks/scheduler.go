package sinks

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/stlalpha/zigcat/internal/zlog"
)

// FlushScheduler drives the two periodic maintenance behaviors sinks
// need beyond per-call Write/Dump: a cron-scheduled flush (spec's
// --flush-cron, adapting the teacher's internal/scheduler.Scheduler from
// BBS events to a lightweight sink maintenance task) and a directory
// watch on a sink file's existing parent directory that signals a reopen
// when the file is created again, e.g. after an external log rotator moved
// it away (adapting the teacher's fsnotify-driven config-reload in
// cmd/vision3/main.go's ConnectionTracker to a sink-reopen trigger instead
// of a list reload). The parent directory must exist when the watch is
// added; a missing directory makes WatchParentDir return an error.
type FlushScheduler struct {
	cron     *cron.Cron
	watchers []*fsnotify.Watcher
	done     chan struct{}
}

// Flusher is implemented by *OutputSink and *HexSink.
type Flusher interface {
	Flush() error
}

// NewFlushScheduler starts a cron job (if expr is non-empty) that calls
// flush on every sink, and does not fail construction if expr is empty —
// callers get a non-nil no-op scheduler they can still Stop().
func NewFlushScheduler(expr string, sinks ...Flusher) (*FlushScheduler, error) {
	s := &FlushScheduler{done: make(chan struct{})}
	if expr == "" {
		return s, nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(expr, func() {
		for _, sk := range sinks {
			if err := sk.Flush(); err != nil {
				zlog.Warn("scheduled sink flush failed: %v", err)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	s.cron.Start()
	return s, nil
}

// WatchParentDir watches path's parent directory for create events on
// path, so a sink whose file was rotated out from under it by an external
// log-roller can signal the caller to reopen.
// onCreate is invoked on the watcher's own goroutine; callers needing
// synchronization must provide their own. Safe to call more than once on
// the same scheduler (one watcher per sink path); every watcher it starts
// is closed by Stop.
func (s *FlushScheduler) WatchParentDir(path string, onCreate func(name string)) error {
	if path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watchers = append(s.watchers, w)

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		s.watchers = s.watchers[:len(s.watchers)-1]
		return err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create != 0 && ev.Name == path {
					onCreate(ev.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				zlog.Warn("sink directory watch error: %v", err)
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

// Stop halts the cron scheduler and every directory watcher.
func (s *FlushScheduler) Stop() {
	close(s.done)
	if s.cron != nil {
		s.cron.Stop()
	}
	for _, w := range s.watchers {
		w.Close()
	}
}
