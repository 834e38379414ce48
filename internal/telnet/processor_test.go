package telnet

import (
	"bytes"
	"errors"
	"testing"
)

func newTestProcessor() *Processor {
	return New(Config{TermType: "xterm", Width: 80, Height: 24})
}

// Scenario 1 (spec §8): escaped IAC inside application data.
func TestProcess_EscapedIAC(t *testing.T) {
	p := newTestProcessor()
	in := []byte{0x48, 0x65, IAC, IAC, 0x6c, 0x6c, 0x6f} // "He" IAC IAC "llo"
	res, err := p.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x65, 0xFF, 0x6c, 0x6c, 0x6f} // "He" + literal 0xFF + "llo"
	if !bytes.Equal(res.App, want) {
		t.Fatalf("App = % x, want % x", res.App, want)
	}
	if len(res.Reply) != 0 {
		t.Fatalf("Reply = %v, want empty", res.Reply)
	}
}

// Scenario 2: WILL ECHO, DO NAWS against client defaults.
func TestProcess_WillEchoDoNAWS(t *testing.T) {
	p := New(Config{TermType: "xterm", Width: 80, Height: 24})
	in := []byte{IAC, WILL, byte(OptEcho), IAC, DO, byte(OptNAWS)}
	res, err := p.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.App) != 0 {
		t.Fatalf("App = %v, want empty", res.App)
	}
	wantPrefix := []byte{IAC, DO, byte(OptEcho), IAC, WILL, byte(OptNAWS)}
	if !bytes.HasPrefix(res.Reply, wantPrefix) {
		t.Fatalf("Reply = % x, want prefix % x", res.Reply, wantPrefix)
	}

	// NAWS is now Yes; UpdateWindowSize should emit the subnegotiation.
	naws := p.UpdateWindowSize(80, 24)
	want := []byte{IAC, SB, byte(OptNAWS), 0x00, 0x50, 0x00, 0x18, IAC, SE}
	if !bytes.Equal(naws, want) {
		t.Fatalf("UpdateWindowSize = % x, want % x", naws, want)
	}
}

// Scenario 3: TERMINAL-TYPE SEND with configured type "xterm".
func TestProcess_TerminalTypeSend(t *testing.T) {
	p := New(Config{TermType: "xterm"})
	in := []byte{IAC, SB, byte(OptTermType), SubSend, IAC, SE}
	res, err := p.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := append([]byte{IAC, SB, byte(OptTermType), SubIS}, []byte("xterm")...)
	want = append(want, IAC, SE)
	if !bytes.Equal(res.Reply, want) {
		t.Fatalf("Reply = % x, want % x", res.Reply, want)
	}
}

// Telnet transparency invariant: IAC-free input passes through untouched
// with no wire response.
func TestProcess_TransparencyNoIAC(t *testing.T) {
	p := newTestProcessor()
	in := []byte("plain text, no telnet bytes at all")
	res, err := p.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(res.App, in) {
		t.Fatalf("App = %q, want %q", res.App, in)
	}
	if len(res.Reply) != 0 {
		t.Fatalf("Reply = %v, want empty", res.Reply)
	}
}

// Idempotent negotiation: a second WILL ECHO after reaching Yes produces
// no further reply.
func TestProcess_IdempotentNegotiation(t *testing.T) {
	p := newTestProcessor()
	first := []byte{IAC, WILL, byte(OptEcho)}
	res, err := p.Process(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Reply) == 0 {
		t.Fatal("expected a reply on first WILL ECHO")
	}

	res2, err := p.Process(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res2.Reply) != 0 {
		t.Fatalf("second WILL ECHO produced Reply = %v, want empty", res2.Reply)
	}
}

// Fragmentation robustness: splitting the input into arbitrary chunks
// must not change the decoded application bytes.
func TestProcess_FragmentationRobustness(t *testing.T) {
	full := []byte{0x48, 0x65, IAC, IAC, 0x6c, IAC, WILL, byte(OptEcho), 0x6c, 0x6f}

	whole := New(Config{})
	wholeRes, err := whole.Process(full)
	if err != nil {
		t.Fatalf("whole: unexpected error: %v", err)
	}

	for split := 1; split < len(full); split++ {
		p := New(Config{})
		var gotApp []byte
		r1, err := p.Process(full[:split])
		if err != nil {
			t.Fatalf("split %d: part 1: %v", split, err)
		}
		gotApp = append(gotApp, r1.App...)
		r2, err := p.Process(full[split:])
		if err != nil {
			t.Fatalf("split %d: part 2: %v", split, err)
		}
		gotApp = append(gotApp, r2.App...)
		if !bytes.Equal(gotApp, wholeRes.App) {
			t.Fatalf("split %d: App = %v, want %v", split, gotApp, wholeRes.App)
		}
	}
}

// Negotiation cap: 11 consecutive WILL/WONT ECHO flips is fatal.
func TestProcess_NegotiationCap(t *testing.T) {
	p := newTestProcessor()
	var err error
	for i := 0; i < 11; i++ {
		cmd := WILL
		if i%2 == 1 {
			cmd = WONT
		}
		_, err = p.Process([]byte{IAC, cmd, byte(OptEcho)})
		if err != nil {
			break
		}
	}
	if !errors.Is(err, ErrNegotiationLoop) {
		t.Fatalf("err = %v, want ErrNegotiationLoop", err)
	}
}

// Output escaping: every 0xFF becomes 0xFF 0xFF; length grows by the
// count of 0xFF bytes in the input.
func TestEscape(t *testing.T) {
	in := []byte{0x01, 0xFF, 0x02, 0xFF, 0xFF, 0x03}
	out := Escape(in)
	want := []byte{0x01, 0xFF, 0xFF, 0x02, 0xFF, 0xFF, 0xFF, 0xFF, 0x03}
	if !bytes.Equal(out, want) {
		t.Fatalf("Escape = % x, want % x", out, want)
	}
	count := bytes.Count(in, []byte{0xFF})
	if len(out) != len(in)+count {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in)+count)
	}
}

func TestEscape_NoIACNoAlloc(t *testing.T) {
	in := []byte("hello world")
	out := Escape(in)
	if &in[0] != &out[0] {
		t.Fatal("Escape allocated despite no 0xFF in input")
	}
}

func TestUnsupportedOption_MirroredRefusal(t *testing.T) {
	p := newTestProcessor()
	res, err := p.Process([]byte{IAC, WILL, 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{IAC, DONT, 99}
	if !bytes.Equal(res.Reply, want) {
		t.Fatalf("Reply = % x, want % x", res.Reply, want)
	}
}

func TestMalformedSubnegotiation(t *testing.T) {
	p := newTestProcessor()
	_, err := p.Process([]byte{IAC, SB, byte(OptNAWS), 0x00, IAC, 0x01})
	if !errors.Is(err, ErrMalformedSequence) {
		t.Fatalf("err = %v, want ErrMalformedSequence", err)
	}
}

func TestSubnegotiationTooLong(t *testing.T) {
	p := newTestProcessor()
	huge := make([]byte, 0, maxSBBuffer+16)
	huge = append(huge, IAC, SB, byte(OptNAWS))
	for i := 0; i < maxSBBuffer+8; i++ {
		huge = append(huge, 0x41)
	}
	_, err := p.Process(huge)
	if !errors.Is(err, ErrSubnegotiationTooLong) {
		t.Fatalf("err = %v, want ErrSubnegotiationTooLong", err)
	}
}
