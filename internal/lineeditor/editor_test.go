package lineeditor

import "testing"

func TestFeed_CommitLF(t *testing.T) {
	e := New(ModeLF)
	committed, eof := e.Feed([]byte("hi\n"))
	if eof {
		t.Fatal("unexpected EOF")
	}
	if len(committed) != 1 || string(committed[0].Line) != "hi" {
		t.Fatalf("committed = %+v", committed)
	}
	out := e.Out()
	if len(out) == 0 {
		t.Fatal("expected echo/redraw bytes")
	}
}

func TestFeed_CommitCRLF(t *testing.T) {
	e := New(ModeCRLF)
	e.Feed([]byte("ab"))
	e.Out()
	committed, _ := e.Feed([]byte("\r"))
	if len(committed) != 1 || string(committed[0].Line) != "ab" {
		t.Fatalf("committed = %+v", committed)
	}
}

func TestFeed_BackspaceRemovesLastByte(t *testing.T) {
	e := New(ModeLF)
	e.Feed([]byte("abc"))
	e.Out()
	e.Feed([]byte{bsDEL})
	e.Out()
	committed, _ := e.Feed([]byte("\n"))
	if string(committed[0].Line) != "ab" {
		t.Fatalf("Line = %q, want %q", committed[0].Line, "ab")
	}
}

func TestFeed_KillLine(t *testing.T) {
	e := New(ModeLF)
	e.Feed([]byte("hello world"))
	e.Out()
	e.Feed([]byte{ctrlU})
	e.Out()
	committed, _ := e.Feed([]byte("\n"))
	if string(committed[0].Line) != "" {
		t.Fatalf("Line = %q, want empty", committed[0].Line)
	}
}

func TestFeed_EraseWord(t *testing.T) {
	e := New(ModeLF)
	e.Feed([]byte("hello world"))
	e.Out()
	e.Feed([]byte{ctrlW})
	e.Out()
	committed, _ := e.Feed([]byte("\n"))
	if string(committed[0].Line) != "hello " {
		t.Fatalf("Line = %q, want %q", committed[0].Line, "hello ")
	}
}

func TestFeed_CtrlDAtEndOfEmptyLineSignalsEOF(t *testing.T) {
	e := New(ModeLF)
	_, eof := e.Feed([]byte{ctrlD})
	if !eof {
		t.Fatal("expected EOF signal")
	}
}

func TestFeed_CtrlDMidLineDeletes(t *testing.T) {
	e := New(ModeLF)
	e.Feed([]byte("abc"))
	e.Out()
	e.moveCursor(-3) // cursor at start
	e.Out()
	_, eof := e.Feed([]byte{ctrlD})
	if eof {
		t.Fatal("unexpected EOF when buffer non-empty")
	}
	committed, _ := e.Feed([]byte("\n"))
	if string(committed[0].Line) != "bc" {
		t.Fatalf("Line = %q, want %q", committed[0].Line, "bc")
	}
}

func TestFeed_NonPrintableFlushesBufferThenForwards(t *testing.T) {
	e := New(ModeLF)
	e.Feed([]byte("partial"))
	e.Out()
	committed, _ := e.Feed([]byte{0x07}) // BEL, not an editing key
	if len(committed) != 1 || string(committed[0].Line) != "partial" {
		t.Fatalf("committed = %+v", committed)
	}
	out := e.Out()
	if len(out) == 0 || out[len(out)-1] != 0x07 {
		t.Fatalf("expected raw BEL forwarded, got % x", out)
	}
}

func TestFeed_CSIArrowMovesCursorWithoutMutating(t *testing.T) {
	e := New(ModeLF)
	e.Feed([]byte("abc"))
	e.Out()
	e.Feed([]byte{esc, '[', 'D'}) // left arrow
	e.Out()
	if e.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", e.cursor)
	}
	if string(e.line) != "abc" {
		t.Fatalf("line mutated: %q", e.line)
	}
}
