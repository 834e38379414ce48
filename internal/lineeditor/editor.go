// Package lineeditor implements the client-side cooked-mode line editor
// used when Telnet linemode + local-edit mode is requested and stdin is a
// TTY (spec §3/§4.D). Its ANSI-escape coordination hook is a narrow
// CSI-parameter scratch state machine — not the full VT100 emulator the
// teacher's internal/terminal/parser.go implements for BBS screen
// rendering, which is explicitly out of scope here (spec §1: "the ANSI
// escape parser beyond its coordination hook with the line editor").
package lineeditor

// ansiState is the editor's ANSI-escape coordination substate.
type ansiState int

const (
	ansiNone ansiState = iota
	ansiEsc
	ansiCsi
)

const maxCSIParam = 12

// CRLFMode selects the line terminator the editor emits on commit.
type CRLFMode bool

const (
	ModeLF   CRLFMode = false
	ModeCRLF CRLFMode = true
)

// Editor is the mutable line-buffer/cursor state described in spec §3.
type Editor struct {
	line   []byte
	cursor int

	lastRenderedLen int

	ansi    ansiState
	csiBuf  []byte
	crlf    CRLFMode

	// out receives bytes for the local terminal: echo/redraw bytes, the
	// echoed terminator of each committed line, and any non-editing byte
	// Feed passes through. Committed line contents are returned by Feed,
	// not placed here. The engine feeds stdin bytes in via Feed and drains
	// Out after each call.
	out []byte
}

// New creates an empty editor. crlf selects \r\n vs \n as the commit
// terminator.
func New(crlf CRLFMode) *Editor {
	return &Editor{crlf: crlf}
}

// Control byte constants the editor recognizes (spec §4.D).
const (
	bsDEL     = 0x7F
	bsBS      = 0x08
	ctrlA     = 0x01
	ctrlB     = 0x02
	ctrlD     = 0x04
	ctrlE     = 0x05
	ctrlF     = 0x06
	ctrlU     = 0x15
	ctrlW     = 0x17
	esc       = 0x1B
	cr        = '\r'
	lf        = '\n'
)

// Committed is returned by Feed for each line the user committed (CR/LF)
// during that call.
type Committed struct {
	Line []byte
}

// Feed processes one chunk of raw stdin bytes. It returns any lines
// committed during processing (in order) and whether the user signalled
// EOF (Ctrl-D at end-of-line with an empty buffer). Echo/redraw bytes
// accumulate in Out(), which the caller must drain (and write to the
// local terminal) after each Feed call.
func (e *Editor) Feed(data []byte) (committed []Committed, eof bool) {
	for _, b := range data {
		if e.ansi != ansiNone {
			if e.feedAnsi(b) {
				continue
			}
		}

		switch {
		case b == cr || b == lf:
			committed = append(committed, Committed{Line: e.commit()})

		case b == bsDEL || b == bsBS:
			e.backspace()

		case b == ctrlD:
			if len(e.line) == 0 {
				eof = true
			} else {
				e.deleteAtCursor()
			}

		case b == ctrlU:
			e.killLine()

		case b == ctrlW:
			e.eraseWord()

		case b == ctrlA:
			e.moveCursor(-e.cursor)

		case b == ctrlE:
			e.moveCursor(len(e.line) - e.cursor)

		case b == ctrlB:
			e.moveCursor(-1)

		case b == ctrlF:
			e.moveCursor(1)

		case b == esc:
			e.ansi = ansiEsc

		case b >= 0x20 && b < 0x7F:
			e.insert(b)

		default:
			// Non-printable, non-editing byte: flush the current buffer
			// as a committed line, then forward the byte raw (spec
			// §4.D).
			if len(e.line) > 0 {
				committed = append(committed, Committed{Line: e.commit()})
			}
			e.out = append(e.out, b)
		}
	}
	return committed, eof
}

// feedAnsi advances the ESC/CSI coordination substate. It returns true if
// the byte was consumed as part of an escape sequence.
func (e *Editor) feedAnsi(b byte) bool {
	switch e.ansi {
	case ansiEsc:
		switch b {
		case '[':
			e.ansi = ansiCsi
			e.csiBuf = e.csiBuf[:0]
			return true
		case bsBS, bsDEL:
			e.eraseWord()
			e.ansi = ansiNone
			return true
		case 'b':
			e.wordBack()
			e.ansi = ansiNone
			return true
		case 'f':
			e.wordForward()
			e.ansi = ansiNone
			return true
		default:
			e.ansi = ansiNone
			return true
		}
	case ansiCsi:
		if b >= '0' && b <= '9' || b == ';' {
			if len(e.csiBuf) < maxCSIParam {
				e.csiBuf = append(e.csiBuf, b)
			}
			return true
		}
		// Final byte.
		e.ansi = ansiNone
		e.handleCSI(b, string(e.csiBuf))
		return true
	}
	return false
}

func (e *Editor) handleCSI(final byte, params string) {
	switch final {
	case 'C': // right arrow (plain; the modified form is handled below)
		if params != "1;5" {
			e.moveCursor(1)
		}
	case 'D': // left arrow (plain; the modified form is handled below)
		if params != "1;5" {
			e.moveCursor(-1)
		}
	case 'H': // Home
		e.moveCursor(-e.cursor)
	case 'F': // End
		e.moveCursor(len(e.line) - e.cursor)
	case '~': // CSI <n> ~ : Home(1)/Delete(3)/End(4)
		switch params {
		case "1":
			e.moveCursor(-e.cursor)
		case "3":
			e.deleteAtCursor()
		case "4":
			e.moveCursor(len(e.line) - e.cursor)
		}
	}
	if final == 'C' || final == 'D' {
		// Modified-arrow word navigation: CSI 1;5C / 1;5D (Ctrl+arrow).
		if params == "1;5" {
			switch final {
			case 'C':
				e.wordForward()
			case 'D':
				e.wordBack()
			}
		}
	}
}

// Out drains and returns the bytes Feed produced for the local terminal:
// echo and redraw sequences, the echoed terminator of each committed
// line, and any non-editing byte passed through. Committed line contents
// are returned by Feed, not by Out.
func (e *Editor) Out() []byte {
	b := e.out
	e.out = nil
	return b
}
