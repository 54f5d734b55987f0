package tabular

import (
	"bytes"
	"unicode/utf8"
)

// utf8BOM is prepended by some spreadsheet exporters (notably on Windows).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitize strips a leading BOM and replaces invalid UTF-8 sequences with
// U+FFFD so that quote and separator scanning always sees valid text.
func sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
		} else {
			buf.Write(data[:size])
			data = data[size:]
		}
	}

	return buf.Bytes()
}
