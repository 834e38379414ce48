//go:build windows

package ttyutil

// PlatformEvents is a no-op latch on Windows: SIGWINCH/SIGTSTP have no
// equivalent, and Ctrl-C is delivered through the console control handler
// rather than a Unix signal, which the IOCP backend does not yet
// translate into Telnet signal bytes.
type PlatformEvents struct{}

func NewPlatformEvents() *PlatformEvents { return &PlatformEvents{} }

func (e *PlatformEvents) Stop() {}

func (e *PlatformEvents) DrainResize() (width, height int, ok bool) { return 0, 0, false }

func (e *PlatformEvents) DrainSignal() (kind int, ok bool) { return 0, false }
