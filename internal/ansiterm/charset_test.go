package ansiterm

import "testing"

func TestRoundTrip_ASCII(t *testing.T) {
	in := []byte("Hello, World!")
	enc := ToCP437(in)
	dec := FromCP437(enc)
	if string(dec) != string(in) {
		t.Fatalf("round trip = %q, want %q", dec, in)
	}
}

func TestFromCP437_BoxDrawing(t *testing.T) {
	// CP437 0xC4 is a horizontal box-drawing rule (U+2500).
	dec := FromCP437([]byte{0xC4, 0xC4, 0xC4})
	if string(dec) != "───" {
		t.Fatalf("got %q", dec)
	}
}

func TestToCP437_UnmappableRuneDoesNotError(t *testing.T) {
	out := ToCP437([]byte("日本語"))
	if len(out) == 0 {
		t.Fatal("expected non-empty replacement output")
	}
}
