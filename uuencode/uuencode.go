/*
Package uuencode implements the classic Unix-to-Unix encoding used for the
binary documents embedded in SEC EDGAR filings.

Three input bytes become four printable characters in [32, 96]; each line
carries a leading length character and the stream is framed by "begin" and
"end" lines. Decades of broken encoders live in the EDGAR archive, so Decode
is deliberately forgiving: it decodes truncated groups as far as their bytes
allow, skips characters outside the printable range, tolerates stray
carriage returns and blank lines, and does not require the "end" marker.
Decode never fails; the worst malformation yields fewer bytes, not an error.
*/
package uuencode

import (
	"bytes"
	"fmt"
	"io/fs"
)

var (
	beginMarker = []byte("begin")
	endMarker   = []byte("end")
)

// Decode decodes a UU-encoded payload. Everything before the first line
// beginning with "begin" is ignored; if no such line exists Decode returns
// nil. Decoding stops at the "end" line or at the end of the input.
func Decode(data []byte) []byte {
	rest, found := skipToBegin(data)
	if !found {
		return nil
	}

	decoded := make([]byte, 0, len(rest)/4*3)
	for len(rest) > 0 {
		var line []byte
		if newline := bytes.IndexByte(rest, '\n'); newline >= 0 {
			line = rest[:newline]
			rest = rest[newline+1:]
		} else {
			line = rest
			rest = nil
		}
		line = trimASCII(line)
		if len(line) == 0 {
			continue
		}
		if bytes.Equal(line, endMarker) {
			break
		}
		decoded = decodeLine(line, decoded)
	}
	return decoded
}

// skipToBegin discards everything up to and including the first line whose
// trimmed content starts with "begin".
func skipToBegin(data []byte) ([]byte, bool) {
	for len(data) > 0 {
		newline := bytes.IndexByte(data, '\n')
		var line, rest []byte
		if newline >= 0 {
			line, rest = data[:newline], data[newline+1:]
		} else {
			line, rest = data, nil
		}
		if bytes.HasPrefix(trimASCII(line), beginMarker) {
			return rest, true
		}
		data = rest
	}
	return nil, false
}

// decodeLine decodes one UU line onto out. The first character declares the
// decoded byte count; at most that many bytes are emitted, and a line short
// of its declaration decodes as far as its bytes go.
func decodeLine(line, out []byte) []byte {
	declared := int(line[0]-32) & 0x3F
	if declared == 0 {
		return out
	}

	written := 0
	emit := func(b byte) {
		if written < declared {
			out = append(out, b)
			written++
		}
	}

	var group [4]byte
	filled := 0
	for _, raw := range line[1:] {
		if raw < 32 || raw > 96 {
			continue
		}
		group[filled] = (raw - 32) & 0x3F
		filled++
		if filled < 4 {
			continue
		}
		emit(group[0]<<2 | group[1]>>4)
		emit((group[1]&0x0F)<<4 | group[2]>>2)
		emit((group[2]&0x03)<<6 | group[3])
		filled = 0
		if written >= declared {
			return out
		}
	}

	// Truncated trailing group: emit what the present bytes determine.
	if filled >= 2 {
		emit(group[0]<<2 | group[1]>>4)
	}
	if filled >= 3 {
		emit((group[1]&0x0F)<<4 | group[2]>>2)
	}
	return out
}

// Encode encodes data with standard uuencode framing: a "begin mode name"
// line, 45-byte data lines, a terminating backtick line, and "end". It is
// the writer-side pair of Decode and produces output any historical decoder
// accepts.
func Encode(data []byte, name string, mode fs.FileMode) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "begin %03o %s\n", uint32(mode.Perm()), name)

	for len(data) > 0 {
		n := len(data)
		if n > 45 {
			n = 45
		}
		chunk := data[:n]
		data = data[n:]

		buf.WriteByte(encodeChar(byte(n)))
		for i := 0; i < n; i += 3 {
			var b [3]byte
			copy(b[:], chunk[i:])
			buf.WriteByte(encodeChar(b[0] >> 2))
			buf.WriteByte(encodeChar((b[0]&0x03)<<4 | b[1]>>4))
			buf.WriteByte(encodeChar((b[1]&0x0F)<<2 | b[2]>>6))
			buf.WriteByte(encodeChar(b[2] & 0x3F))
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("`\nend\n")
	return buf.Bytes()
}

// encodeChar maps a 6-bit value to its printable character, using backtick
// for zero as historical encoders do.
func encodeChar(value byte) byte {
	value &= 0x3F
	if value == 0 {
		return '`'
	}
	return value + 32
}

func trimASCII(data []byte) []byte {
	for len(data) > 0 && isSpace(data[0]) {
		data = data[1:]
	}
	for len(data) > 0 && isSpace(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	return data
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
