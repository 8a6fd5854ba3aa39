package sgml

import "bytes"

/*
Low level byte utilities shared by the indexer and the metadata parsers.

Submissions can be tens of megabytes, so everything below works on sub-slices
of the input buffer and avoids copying. The one exception is lowercasing,
which has to allocate its small output.
*/

// span is a half-open byte range [start, end) into the input buffer.
type span struct {
	start int
	end   int
}

func (s span) len() int {
	return s.end - s.start
}

// indexLines returns one span per line, split on '\n'. A trailing '\r' is
// excluded from the line. A final line without a newline is included.
func indexLines(data []byte) []span {
	lines := make([]span, 0, len(data)/50)
	lineStart := 0
	for pos := 0; pos < len(data); pos++ {
		if data[pos] != '\n' {
			continue
		}
		lineEnd := pos
		if pos > 0 && data[pos-1] == '\r' {
			lineEnd = pos - 1
		}
		lines = append(lines, span{lineStart, lineEnd})
		lineStart = pos + 1
	}
	if lineStart < len(data) {
		lines = append(lines, span{lineStart, len(data)})
	}
	return lines
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// trimASCII removes leading and trailing spaces, tabs, carriage returns, and
// newlines. It returns a sub-slice of its input.
func trimASCII(data []byte) []byte {
	return trimASCIIEnd(trimASCIIStart(data))
}

func trimASCIIStart(data []byte) []byte {
	for len(data) > 0 && isASCIISpace(data[0]) {
		data = data[1:]
	}
	return data
}

func trimASCIIEnd(data []byte) []byte {
	for len(data) > 0 && isASCIISpace(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	return data
}

// toLowerASCII maps A-Z to a-z and leaves every other byte alone, so tags
// with non-ASCII bytes pass through uncorrupted. It allocates.
func toLowerASCII(data []byte) []byte {
	lower := make([]byte, len(data))
	for i, b := range data {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		lower[i] = b
	}
	return lower
}

// splitTag splits a line beginning with '<' into the tag name (without
// angle brackets) and the content after the closing '>'. It reports false
// when the line has no '>'.
func splitTag(line []byte) (tag, content []byte, ok bool) {
	if len(line) == 0 || line[0] != '<' {
		return nil, nil, false
	}
	end := bytes.IndexByte(line, '>')
	if end < 1 {
		return nil, nil, false
	}
	return line[1:end], line[end+1:], true
}
