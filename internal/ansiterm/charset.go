// Package ansiterm provides the CP437/UTF-8 charset conversion the transfer
// engine applies at the stdin/stdout boundary when the -cp437 flag
// (Config.CP437) is set. Grounded on the teacher's internal/terminal charset
// handling (internal/terminalio/cp437_writer.go), trimmed to the
// conversion primitives the engine needs rather than the full selective
// stream writer the teacher built around a bubbletea session.
package ansiterm

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// cp437Enc replaces runes CP437 cannot represent with the encoding's
// replacement byte instead of erroring mid-stream.
var cp437Enc = encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder())

// ToCP437 encodes UTF-8 text to CP437, replacing codepoints CP437 cannot
// represent. The returned slice is a fresh allocation, except that on an
// encoding error the input is returned unchanged.
func ToCP437(utf8Text []byte) []byte {
	out, _, err := transform.Bytes(cp437Enc, utf8Text)
	if err != nil {
		return utf8Text
	}
	return out
}

// FromCP437 decodes CP437 bytes to UTF-8.
func FromCP437(cp437Text []byte) []byte {
	out, _, err := transform.Bytes(charmap.CodePage437.NewDecoder(), cp437Text)
	if err != nil {
		return cp437Text
	}
	return out
}
