package sinks

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestHexSink_Scenario4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.hex")
	s, err := OpenHexSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dump([]byte("Hello, World!")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "00000000  48 65 6c 6c 6f 2c 20 57  6f 72 6c 64 21              |Hello, World!|\n"
	if string(got) != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestHexSink_OffsetAdvancesByExactByteCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.hex")
	s, err := OpenHexSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	chunks := [][]byte{
		bytes.Repeat([]byte{0x41}, 7),
		bytes.Repeat([]byte{0x42}, 20),
		bytes.Repeat([]byte{0x43}, 3),
	}
	var n int64
	for _, c := range chunks {
		if _, err := s.Dump(c); err != nil {
			t.Fatal(err)
		}
		n += int64(len(c))
	}
	if s.offset != n {
		t.Fatalf("offset = %d, want %d", s.offset, n)
	}
}

func TestHexSink_ResetOffset(t *testing.T) {
	s := &HexSink{}
	if _, err := s.Dump(make([]byte, 32)); err != nil {
		t.Fatal(err)
	}
	s.ResetOffset()
	if s.offset != 0 {
		t.Fatalf("offset = %d, want 0", s.offset)
	}
}

func TestHexSink_SilentWhenPathEmpty(t *testing.T) {
	s, err := OpenHexSink("", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dump([]byte("anything")); err != nil {
		t.Fatal(err)
	}
}

func TestHexSink_RendersEvenWithoutBackingFile(t *testing.T) {
	s, err := OpenHexSink("", false)
	if err != nil {
		t.Fatal(err)
	}
	rendered, err := s.Dump([]byte("Hello, World!"))
	if err != nil {
		t.Fatal(err)
	}
	want := "00000000  48 65 6c 6c 6f 2c 20 57  6f 72 6c 64 21              |Hello, World!|\n"
	if string(rendered) != want {
		t.Fatalf("rendered = %q, want %q", rendered, want)
	}
}

func TestHexSink_ReopenClearsDisabledAndResumesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.hex")
	s, err := OpenHexSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	s.Dump([]byte("x")) // forces disabled

	if err := s.Reopen(); err != nil {
		t.Fatal(err)
	}
	if s.Disabled() {
		t.Fatal("expected Reopen to clear the disabled flag")
	}
	if _, err := s.Dump([]byte("y")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	got, _ := os.ReadFile(path)
	if len(got) == 0 {
		t.Fatal("expected bytes written after Reopen")
	}
}

func TestHexSink_MultiLinePadding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.hex")
	s, err := OpenHexSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	data := bytes.Repeat([]byte{0x00}, 17)
	if _, err := s.Dump(data); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	lines := bytes.Count(got, []byte("\n"))
	if lines != 2 {
		t.Fatalf("lines = %d, want 2 (16 + 1 byte)", lines)
	}
}
