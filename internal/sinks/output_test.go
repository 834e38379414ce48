package sinks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputSink_AppendsRawBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	s, err := OpenOutputSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte(" world")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestOutputSink_TruncatesByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := OpenOutputSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	s.Write([]byte("fresh"))
	s.Close()

	got, _ := os.ReadFile(path)
	if string(got) != "fresh" {
		t.Fatalf("got %q, want truncated+fresh", got)
	}
}

func TestOutputSink_AppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	if err := os.WriteFile(path, []byte("old-"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := OpenOutputSink(path, true)
	if err != nil {
		t.Fatal(err)
	}
	s.Write([]byte("new"))
	s.Close()

	got, _ := os.ReadFile(path)
	if string(got) != "old-new" {
		t.Fatalf("got %q, want appended", got)
	}
}

func TestOutputSink_SilentWhenPathEmpty(t *testing.T) {
	s, err := OpenOutputSink("", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte("anything")); err != nil {
		t.Fatal(err)
	}
	if s.Disabled() {
		t.Fatal("silent sink should not report disabled")
	}
}

func TestOutputSink_ReopenClearsDisabledAndResumesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	s, err := OpenOutputSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	s.Write([]byte("x")) // forces disabled

	if err := s.Reopen(); err != nil {
		t.Fatal(err)
	}
	if s.Disabled() {
		t.Fatal("expected Reopen to clear the disabled flag")
	}
	if err := s.Write([]byte("fresh")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	got, _ := os.ReadFile(path)
	if string(got) != "fresh" {
		t.Fatalf("got %q, want %q", got, "fresh")
	}
}

func TestOutputSink_ReopenIsNoopWithoutPath(t *testing.T) {
	s, err := OpenOutputSink("", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Reopen(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOutputSink_DisablesAfterFatalWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.raw")
	s, err := OpenOutputSink(path, false)
	if err != nil {
		t.Fatal(err)
	}
	s.Close() // force subsequent writes to fail
	if err := s.Write([]byte("x")); err == nil {
		t.Fatal("expected write-after-close error")
	}
	if !s.Disabled() {
		t.Fatal("expected sink to disable itself after fatal error")
	}
	if err := s.Write([]byte("y")); err != nil {
		t.Fatalf("disabled sink should swallow further writes, got %v", err)
	}
}
