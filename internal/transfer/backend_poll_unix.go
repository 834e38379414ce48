//go:build !windows

package transfer

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// runPoll is the reference backend (spec §4.B: "poll... is the reference
// implementation" that every other backend falls back to). It waits on
// stdin and the stream's descriptor with unix.Poll, bounded by the idle
// timeout, and dispatches readiness the same way every backend must.
//
// Grounded on the readiness-loop/fd-tagging style of
// other_examples'…go-proxyproto…epoll_linux.go, adapted from epoll's
// edge-triggered interest-set management to poll(2)'s flat pollfd array
// (POSIX poll is the portable primitive across the BSD/Darwin/Linux pack
// targets, where epoll is Linux-only).
func runPoll(s *Session) error {
	stdinFd := int(s.stdinHandle())
	streamFd := int(s.peerStream().Handle())

	for !s.done() {
		if err := s.peerStream().Maintain(); err != nil {
			return fmt.Errorf("poll backend: maintain: %w", err)
		}

		fds := make([]unix.PollFd, 0, 2)
		var stdinIdx, streamIdx = -1, -1
		if s.canSend && !s.stdinClosed {
			stdinIdx = len(fds)
			fds = append(fds, unix.PollFd{Fd: int32(stdinFd), Events: unix.POLLIN})
		}
		if s.canRecv && !s.socketClosed {
			streamIdx = len(fds)
			fds = append(fds, unix.PollFd{Fd: int32(streamFd), Events: unix.POLLIN})
		}
		if len(fds) == 0 {
			break
		}

		timeoutMS := idleTimeoutMillis(s.cfg.IdleTimeout)
		n, err := unix.Poll(fds, timeoutMS)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll backend: poll: %w", err)
		}
		if n == 0 {
			return errIdleTimeout
		}

		if stdinIdx >= 0 && fds[stdinIdx].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			r := s.readFromStdin()
			if r.err != nil {
				return fmt.Errorf("poll backend: stdin read: %w", r.err)
			}
			if err := s.handleStdinRead(r); err != nil {
				return fmt.Errorf("poll backend: handling stdin chunk: %w", err)
			}
		}
		if streamIdx >= 0 && fds[streamIdx].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			r := s.readFromStream()
			if r.err != nil {
				return fmt.Errorf("poll backend: stream read: %w", r.err)
			}
			if err := s.handleStreamRead(r); err != nil {
				return fmt.Errorf("poll backend: handling stream chunk: %w", err)
			}
		}
	}
	return nil
}

// idleTimeoutMillis converts d to the millisecond timeout unix.Poll
// expects, with -1 meaning "block indefinitely" (d <= 0).
func idleTimeoutMillis(d time.Duration) int {
	if d <= 0 {
		return -1
	}
	return int(d / time.Millisecond)
}
