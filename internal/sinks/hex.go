package sinks

import (
	"bytes"
	"os"
	"sync"
)

// lineWidth is the number of bytes of input rendered on one hex-dump line.
const lineWidth = 16
const groupWidth = lineWidth / 2

// HexSink renders received bytes in the fixed hex-dump format of spec
// §6/§8 scenario 4 and appends them to a file. It tracks a running byte
// offset across calls to Dump so a caller can feed it arbitrarily sized
// chunks and still get one continuous dump.
type HexSink struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	offset   int64
	disabled bool
}

// OpenHexSink opens path in truncate or append mode. An empty path
// returns a silent sink.
func OpenHexSink(path string, append bool) (*HexSink, error) {
	if path == "" {
		return &HexSink{}, nil
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
	return &HexSink{f: f, path: path}, nil
}

// Reopen closes and reopens the sink's backing file in place, clearing
// any disabled state, for the FlushScheduler directory-watch reopen hook.
// A no-op on a silent (no-path) sink.
func (s *HexSink) Reopen() error {
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

// Dump renders b as one or more 16-byte hex-dump lines, advancing the
// running offset by len(b) exactly (the "Hex offset" testable property),
// and returns the rendered lines so a caller without its own file sink
// (e.g. the engine printing to stdout under -hex-dump) can still use the
// formatted output. The rendered bytes are returned even when no backing
// file is open.
func (s *HexSink) Dump(b []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	for off := 0; off < len(b); off += lineWidth {
		end := off + lineWidth
		if end > len(b) {
			end = len(b)
		}
		writeHexLine(&buf, s.offset, b[off:end])
		s.offset += int64(end - off)
	}
	rendered := buf.Bytes()

	if s.f == nil || s.disabled {
		return rendered, nil
	}
	if _, err := s.f.Write(rendered); err != nil {
		s.disabled = true
		return rendered, classifyWrite(err)
	}
	return rendered, nil
}

// ResetOffset zeroes the running offset counter without touching the
// backing file, matching a fresh session's dump restarting from zero.
func (s *HexSink) ResetOffset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = 0
}

// Flush requests durable write-through.
func (s *HexSink) Flush() error {
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
func (s *HexSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}

// Disabled reports whether the sink stopped accepting writes after a
// fatal error.
func (s *HexSink) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

const hexDigits = "0123456789abcdef"

// writeHexLine renders one line of at most 16 bytes: an 8-digit offset,
// two 8-byte groups separated by an extra space, missing trailing bytes
// padded with three spaces each, a fixed gap before the ASCII sidebar,
// and the sidebar itself enclosed in |…|. Matches spec §8 scenario 4
// byte-for-byte.
func writeHexLine(buf *bytes.Buffer, offset int64, data []byte) {
	writeOffset(buf, offset)
	buf.WriteString("  ")
	writeGroup(buf, data, 0)
	buf.WriteString("  ")
	writeGroup(buf, data, groupWidth)
	buf.WriteString("     ")
	buf.WriteByte('|')
	for _, c := range data {
		if c >= 0x20 && c < 0x7F {
			buf.WriteByte(c)
		} else {
			buf.WriteByte('.')
		}
	}
	buf.WriteString("|\n")
}

// writeGroup renders groupWidth byte slots starting at data[start:], each
// slot either "xx" or, past the end of data, two spaces, joined by single
// spaces.
func writeGroup(buf *bytes.Buffer, data []byte, start int) {
	for i := 0; i < groupWidth; i++ {
		if i > 0 {
			buf.WriteByte(' ')
		}
		idx := start + i
		if idx < len(data) {
			b := data[idx]
			buf.WriteByte(hexDigits[b>>4])
			buf.WriteByte(hexDigits[b&0xf])
		} else {
			buf.WriteString("  ")
		}
	}
}

func writeOffset(buf *bytes.Buffer, offset int64) {
	var tmp [8]byte
	v := uint32(offset)
	for i := 7; i >= 0; i-- {
		tmp[i] = hexDigits[v&0xf]
		v >>= 4
	}
	buf.Write(tmp[:])
}
