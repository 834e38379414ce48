//go:build windows

package transfer

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

// Tags per spec §4.B: 0 = stdin read, 1 = socket read, 2 = writes.
const (
	iocpTagStdin  = 0
	iocpTagSocket = 1
)

func iocpAvailable() bool { return true }

// runIOCP associates stdin and the stream handle with a single completion
// port once, then loops reissuing a read after each completion — the
// kernel re-issue requirement spec §4.B calls out, mirroring the
// structure of the poll backend's readiness loop but driven by
// GetQueuedCompletionStatus instead of poll(2).
func runIOCP(s *Session) error {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return fmt.Errorf("iocp backend: create completion port: %w", err)
	}
	defer windows.CloseHandle(port)

	stdinAssociated, streamAssociated := false, false

	issueStdinRead := func() error {
		if !s.canSend || s.stdinClosed {
			return nil
		}
		if !stdinAssociated {
			if _, err := windows.CreateIoCompletionPort(windows.Handle(s.stdinHandle()), port, iocpTagStdin, 0); err != nil {
				return fmt.Errorf("associate stdin: %w", err)
			}
			stdinAssociated = true
		}
		return nil
	}
	issueStreamRead := func() error {
		if !s.canRecv || s.socketClosed {
			return nil
		}
		if !streamAssociated {
			if _, err := windows.CreateIoCompletionPort(windows.Handle(s.peerStream().Handle()), port, iocpTagSocket, 0); err != nil {
				return fmt.Errorf("associate stream: %w", err)
			}
			streamAssociated = true
		}
		return nil
	}

	if err := issueStdinRead(); err != nil {
		return fmt.Errorf("iocp backend: %w", err)
	}
	if err := issueStreamRead(); err != nil {
		return fmt.Errorf("iocp backend: %w", err)
	}

	for !s.done() {
		if err := s.peerStream().Maintain(); err != nil {
			return fmt.Errorf("iocp backend: maintain: %w", err)
		}

		var bytesTransferred uint32
		var completionKey uintptr
		var overlapped *windows.Overlapped

		timeoutMS := iocpTimeoutMillis(s.cfg.IdleTimeout)
		err := windows.GetQueuedCompletionStatus(port, &bytesTransferred, &completionKey, &overlapped, uint32(timeoutMS))
		if err != nil {
			if errors.Is(err, windows.WAIT_TIMEOUT) {
				return errIdleTimeout
			}
			if isBrokenPipe(err) {
				// Windows-specific "side closed" transition, not a hard
				// failure, per spec §4.B IOCP specifics.
				markSideClosedByTag(s, completionKey)
				continue
			}
			return fmt.Errorf("iocp backend: GetQueuedCompletionStatus: %w", err)
		}

		switch completionKey {
		case iocpTagStdin:
			r := s.readFromStdin()
			if r.err != nil {
				return fmt.Errorf("iocp backend: stdin read: %w", r.err)
			}
			if err := s.handleStdinRead(r); err != nil {
				return fmt.Errorf("iocp backend: handling stdin chunk: %w", err)
			}
		case iocpTagSocket:
			r := s.readFromStream()
			if r.err != nil {
				return fmt.Errorf("iocp backend: stream read: %w", r.err)
			}
			if err := s.handleStreamRead(r); err != nil {
				return fmt.Errorf("iocp backend: handling stream chunk: %w", err)
			}
		}
	}
	return nil
}

func markSideClosedByTag(s *Session, tag uintptr) {
	switch tag {
	case iocpTagStdin:
		s.stdinClosed = true
	case iocpTagSocket:
		s.socketClosed = true
	}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, windows.ERROR_BROKEN_PIPE) || errors.Is(err, windows.ERROR_PIPE_NOT_CONNECTED)
}

func iocpTimeoutMillis(d time.Duration) uint32 {
	if d <= 0 {
		return windows.INFINITE
	}
	return uint32(d / time.Millisecond)
}
