//go:build !windows

package ttyutil

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// PlatformEvents is the process-wide latch spec §9 calls for: a
// signal-handler-driven edge source for window-resize and Ctrl-C/Ctrl-Z,
// drained once per transfer-loop iteration via DrainResize/DrainSignal.
// Fields are atomics so the notify goroutine (Go delivers signals to a
// channel, never runs user code inside the actual signal handler) and the
// draining call can run concurrently without a lock.
type PlatformEvents struct {
	ch   chan os.Signal
	done chan struct{}

	width, height int32
	resizePending int32

	signalKind    int32
	signalPending int32
}

// NewPlatformEvents starts watching SIGWINCH/SIGINT/SIGTSTP and returns
// the latch. Call Stop when the session ends.
func NewPlatformEvents() *PlatformEvents {
	e := &PlatformEvents{
		ch:   make(chan os.Signal, 4),
		done: make(chan struct{}),
	}
	signal.Notify(e.ch, syscall.SIGWINCH, syscall.SIGINT, syscall.SIGTSTP)
	go e.loop()
	return e
}

// Stop releases the signal subscription.
func (e *PlatformEvents) Stop() {
	signal.Stop(e.ch)
	close(e.done)
}

func (e *PlatformEvents) loop() {
	for {
		select {
		case sig := <-e.ch:
			switch sig {
			case syscall.SIGWINCH:
				w, h := Size(os.Stdout)
				atomic.StoreInt32(&e.width, int32(w))
				atomic.StoreInt32(&e.height, int32(h))
				atomic.StoreInt32(&e.resizePending, 1)
			case syscall.SIGINT:
				atomic.StoreInt32(&e.signalKind, int32(signalInterrupt))
				atomic.StoreInt32(&e.signalPending, 1)
			case syscall.SIGTSTP:
				atomic.StoreInt32(&e.signalKind, int32(signalSuspend))
				atomic.StoreInt32(&e.signalPending, 1)
			}
		case <-e.done:
			return
		}
	}
}

// DrainResize implements telnet.ResizeSource: it reports at most one
// pending resize per call, coalescing any that fired since the last
// drain to the latest width/height.
func (e *PlatformEvents) DrainResize() (width, height int, ok bool) {
	if !atomic.CompareAndSwapInt32(&e.resizePending, 1, 0) {
		return 0, 0, false
	}
	return int(atomic.LoadInt32(&e.width)), int(atomic.LoadInt32(&e.height)), true
}

// Signal kinds mirror telnet.SignalKind's values without importing the
// telnet package from here (ttyutil stays below telnet in the layering).
const (
	signalNone = iota
	signalInterrupt
	signalSuspend
)

// DrainSignal reports at most one pending signal per call. kind's values
// (0 = none, 1 = interrupt, 2 = suspend) line up positionally with
// telnet.SignalKind; cmd/zigcat adapts between the two so this package
// never needs to import internal/telnet.
func (e *PlatformEvents) DrainSignal() (kind int, ok bool) {
	if !atomic.CompareAndSwapInt32(&e.signalPending, 1, 0) {
		return signalNone, false
	}
	return int(atomic.LoadInt32(&e.signalKind)), true
}
