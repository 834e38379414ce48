package lineeditor

// insert places b into the line buffer at the cursor and advances it,
// then redraws.
func (e *Editor) insert(b byte) {
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = b
	e.cursor++
	e.redraw()
}

// backspace deletes the byte before the cursor (spec §4.D: Backspace
// 0x7F/0x08).
func (e *Editor) backspace() {
	if e.cursor == 0 {
		return
	}
	copy(e.line[e.cursor-1:], e.line[e.cursor:])
	e.line = e.line[:len(e.line)-1]
	e.cursor--
	e.redraw()
}

// deleteAtCursor deletes the byte at the cursor (Delete / Ctrl-D at
// non-end).
func (e *Editor) deleteAtCursor() {
	if e.cursor >= len(e.line) {
		return
	}
	copy(e.line[e.cursor:], e.line[e.cursor+1:])
	e.line = e.line[:len(e.line)-1]
	e.redraw()
}

// killLine clears the entire buffer (Ctrl-U).
func (e *Editor) killLine() {
	e.line = e.line[:0]
	e.cursor = 0
	e.redraw()
}

// eraseWord deletes the word immediately before the cursor (Ctrl-W /
// ESC-Backspace).
func (e *Editor) eraseWord() {
	start := e.cursor
	for start > 0 && e.line[start-1] == ' ' {
		start--
	}
	for start > 0 && e.line[start-1] != ' ' {
		start--
	}
	copy(e.line[start:], e.line[e.cursor:])
	e.line = e.line[:len(e.line)-(e.cursor-start)]
	e.cursor = start
	e.redraw()
}

// wordForward/wordBack move the cursor by one word (ESC-b/f, CSI modified
// arrow) without mutating the buffer.
func (e *Editor) wordForward() {
	i := e.cursor
	for i < len(e.line) && e.line[i] == ' ' {
		i++
	}
	for i < len(e.line) && e.line[i] != ' ' {
		i++
	}
	e.moveCursor(i - e.cursor)
}

func (e *Editor) wordBack() {
	i := e.cursor
	for i > 0 && e.line[i-1] == ' ' {
		i--
	}
	for i > 0 && e.line[i-1] != ' ' {
		i--
	}
	e.moveCursor(i - e.cursor)
}

// moveCursor shifts the cursor by delta, clamped to [0, len(line)], and
// redraws (cursor-only moves still need the prefix-redraw to reposition
// the remote cursor).
func (e *Editor) moveCursor(delta int) {
	nc := e.cursor + delta
	if nc < 0 {
		nc = 0
	}
	if nc > len(e.line) {
		nc = len(e.line)
	}
	e.cursor = nc
	e.redraw()
}

// commit locally echoes the terminator and clears the buffer, returning
// the committed line bytes (without the terminator) for the caller to
// write to the stream. The buffer itself is not re-echoed here: every
// keystroke already painted it via redraw.
func (e *Editor) commit() []byte {
	line := append([]byte(nil), e.line...)
	term := []byte("\n")
	if e.crlf {
		term = []byte("\r\n")
	}
	e.out = append(e.out, term...)
	e.line = e.line[:0]
	e.cursor = 0
	e.lastRenderedLen = 0
	return line
}

// redraw implements spec §4.D's redraw strategy: emit \r, the buffer
// contents, enough spaces to cover any shrunk tail, then \r followed by
// the prefix up to the cursor.
func (e *Editor) redraw() {
	e.out = append(e.out, '\r')
	e.out = append(e.out, e.line...)

	pad := e.lastRenderedLen - len(e.line)
	for i := 0; i < pad; i++ {
		e.out = append(e.out, ' ')
	}
	if len(e.line) > e.lastRenderedLen {
		e.lastRenderedLen = len(e.line)
	}

	e.out = append(e.out, '\r')
	e.out = append(e.out, e.line[:e.cursor]...)
}
