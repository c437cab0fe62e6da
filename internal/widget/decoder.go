package widget

import (
	"strings"
	"unicode/utf8"
)

// utf8Decoder turns a byte stream into text, holding back a rune that is
// split across reads until the rest of it arrives.
type utf8Decoder struct {
	pending []byte
}

func (d *utf8Decoder) Decode(p []byte) string {
	data := make([]byte, 0, len(d.pending)+len(p))
	data = append(data, d.pending...)
	data = append(data, p...)

	cut := len(data)
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				cut = i
			}
			break
		}
	}

	d.pending = append(d.pending[:0], data[cut:]...)
	return strings.ToValidUTF8(string(data[:cut]), "\uFFFD")
}

// Flush returns whatever is still held back, with invalid bytes replaced.
func (d *utf8Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := strings.ToValidUTF8(string(d.pending), "\uFFFD")
	d.pending = d.pending[:0]
	return s
}
