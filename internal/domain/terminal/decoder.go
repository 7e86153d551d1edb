package terminal

import (
	"strings"
	"unicode/utf8"
)

const replacement = "\uFFFD"

// utf8Decoder turns a byte stream into valid UTF-8 text. Invalid sequences
// become U+FFFD; a rune split across reads is held until the next read.
type utf8Decoder struct {
	pending []byte
}

func (d *utf8Decoder) Decode(p []byte) string {
	data := p
	if len(d.pending) > 0 {
		data = append(d.pending, p...)
		d.pending = nil
	}

	if cut := incompleteSuffix(data); cut > 0 {
		d.pending = append([]byte(nil), data[len(data)-cut:]...)
		data = data[:len(data)-cut]
	}
	return strings.ToValidUTF8(string(data), replacement)
}

// Flush returns whatever is still pending at end of stream.
func (d *utf8Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	out := strings.ToValidUTF8(string(d.pending), replacement)
	d.pending = nil
	return out
}

// incompleteSuffix returns the length of a trailing multi-byte rune prefix
// that more input could still complete.
func incompleteSuffix(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}
		if c < utf8.RuneSelf || utf8.FullRune(b[len(b)-i:]) {
			return 0
		}
		return i
	}
	return 0
}
