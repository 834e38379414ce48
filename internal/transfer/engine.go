package transfer

import (
	"bytes"
	"time"

	"github.com/stlalpha/zigcat/internal/ansiterm"
	"github.com/stlalpha/zigcat/internal/zlog"
)

// crlf converts every "\n" not already preceded by "\r" in buf to "\r\n".
// Passes buf through unchanged (zero allocation) when it contains no "\n",
// per spec §4.B "Line-ending conversion".
func crlf(buf []byte) []byte {
	if !bytes.ContainsRune(buf, '\n') {
		return buf
	}
	out := make([]byte, 0, len(buf)+bytes.Count(buf, []byte{'\n'}))
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' && (i == 0 || buf[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, buf[i])
	}
	return out
}

// readResult is the outcome of one readiness-triggered read, shared by
// all three backends so their event loops differ only in how they wait
// for readiness, not in how they react to it.
type readResult struct {
	n   int
	err error
}

// handleStdinRead processes one stdin read result: EOF transitions
// stdin_closed and optionally half-closes the stream; otherwise the bytes
// are (editor-fed, if local-edit mode is active, else) CRLF-converted and
// written to the peer stream, then delay_ms is applied.
func (s *Session) handleStdinRead(r readResult) error {
	if r.n == 0 {
		s.stdinClosed = true
		if s.cfg.CloseOnEOF {
			// Terminate the session: with both sides marked closed,
			// every backend's loop exits.
			s.socketClosed = true
			return nil
		}
		if !s.cfg.NoShutdown {
			if err := shutdownWrite(s.stream); err != nil {
				zlog.Warn("half-close of write side failed: %v", err)
			}
		}
		return nil
	}

	if s.editor != nil {
		return s.handleEditedStdin(r)
	}

	out := s.rbufStdin[:r.n]
	if s.cfg.CRLF {
		out = crlf(out)
	}
	if s.cfg.CP437 {
		out = ansiterm.ToCP437(out)
	}
	if _, err := s.peerStream().Write(out); err != nil {
		return err
	}
	if s.cfg.DelayMS > 0 {
		time.Sleep(time.Duration(s.cfg.DelayMS) * time.Millisecond)
	}
	return nil
}

// handleEditedStdin feeds a stdin chunk through the local-edit line editor.
// Local echo/redraw bytes go to stdout (the TTY isn't in cooked mode, so the
// kernel won't echo for us); committed lines go to the peer stream, each
// followed by delay_ms if configured, matching the raw-path's per-write
// pacing (spec §4.B step 4).
func (s *Session) handleEditedStdin(r readResult) error {
	committed, eof := s.editor.Feed(s.rbufStdin[:r.n])

	if out := s.editor.Out(); len(out) > 0 {
		if _, err := s.stdout.Write(out); err != nil {
			return err
		}
	}

	term := []byte("\n")
	if s.cfg.CRLF {
		term = []byte("\r\n")
	}
	for _, line := range committed {
		out := append(line.Line, term...)
		if s.cfg.CP437 {
			out = ansiterm.ToCP437(out)
		}
		if _, err := s.peerStream().Write(out); err != nil {
			return err
		}
		if s.cfg.DelayMS > 0 {
			time.Sleep(time.Duration(s.cfg.DelayMS) * time.Millisecond)
		}
	}

	if eof {
		s.stdinClosed = true
		if s.cfg.CloseOnEOF {
			s.socketClosed = true
			return nil
		}
		if !s.cfg.NoShutdown {
			if err := shutdownWrite(s.stream); err != nil {
				zlog.Warn("half-close of write side failed: %v", err)
			}
		}
	}
	return nil
}

// handleStreamRead processes one stream read result: EOF transitions
// socket_closed; otherwise bytes are delivered to stdout/sinks (app_bytes
// only, after any Telnet filtering the peerStream itself performed).
func (s *Session) handleStreamRead(r readResult) error {
	if r.n == 0 {
		s.socketClosed = true
		return nil
	}

	appBytes := s.rbufStream[:r.n]

	if !s.cfg.HexDump {
		display := appBytes
		if s.cfg.CP437 {
			display = ansiterm.FromCP437(appBytes)
		}
		if _, err := s.stdout.Write(display); err != nil {
			return err
		}
	}
	if s.outputSink != nil {
		if err := s.outputSink.Write(appBytes); err != nil {
			logSinkWarning("output", err)
		}
	}
	if s.hexSink != nil {
		rendered, err := s.hexSink.Dump(appBytes)
		if err != nil {
			logSinkWarning("hex", err)
			return nil
		}
		// Hex-dump mode replaces the raw stdout echo with the formatted
		// dump; the sink renders it regardless of whether a file is
		// also configured, so stdout always gets it under -hex-dump.
		if s.cfg.HexDump {
			if _, err := s.stdout.Write(rendered); err != nil {
				return err
			}
		}
	}
	return nil
}
