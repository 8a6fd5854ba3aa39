package sgml

import (
	"bytes"

	"github.com/bebop/edgar/uuencode"
)

/*
Per-document parsing: the small tag block between <DOCUMENT> and <TEXT>, and
the text payload itself.
*/

// wrapperTags are stripped from the front of a payload before UU detection.
// EDGAR wraps some payloads in a single markup pair that is not part of the
// document proper.
var wrapperTags = [][]byte{
	[]byte("<PDF>"),
	[]byte("<XBRL>"),
	[]byte("<XML>"),
}

// parseDocumentMetadata parses the tag block between a <DOCUMENT> open and
// its <TEXT> open. A <TAG>value line sets a key; a bare line continues the
// most recent key's value. Keys are unique at this level, so repeats replace.
func parseDocumentMetadata(data []byte) *Dict {
	metadata := NewDict()
	current := ""

	for _, line := range indexLines(data) {
		raw := data[line.start:line.end]
		if len(raw) > 0 && raw[0] == '<' {
			if tag, content, ok := splitTag(raw); ok {
				key := string(toLowerASCII(tag))
				metadata.Set(key, Text(trimASCII(content)))
				current = key
				continue
			}
		}
		if current == "" {
			continue
		}
		trimmed := trimASCII(raw)
		if len(trimmed) == 0 {
			continue
		}
		if existing, ok := metadata.Text(current); ok {
			metadata.Set(current, Text(existing+" "+string(trimmed)))
		}
	}
	return metadata
}

// processText turns the raw bytes of a text segment into the document
// payload: strip a wrapper pair if present, then UU-decode if the content
// begins with "begin", else copy the bytes through.
func processText(payload []byte) []byte {
	payload = trimASCIIStart(payload)
	payload = stripWrapper(payload)
	payload = trimASCIIStart(payload)
	if len(payload) == 0 {
		return nil
	}
	if bytes.HasPrefix(payload, []byte("begin")) {
		return uuencode.Decode(payload)
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	return copied
}

// stripWrapper removes a leading <PDF>, <XBRL>, or <XML> line and, when
// present, the matching closing line at the tail. The wrappers never contain
// UU data themselves; stripping runs before UU detection.
func stripWrapper(payload []byte) []byte {
	firstLineEnd := bytes.IndexByte(payload, '\n')
	var firstLine []byte
	if firstLineEnd < 0 {
		firstLine = payload
	} else {
		firstLine = payload[:firstLineEnd]
	}
	firstLine = trimASCII(firstLine)

	for _, wrapper := range wrapperTags {
		if !bytes.Equal(firstLine, wrapper) {
			continue
		}
		if firstLineEnd < 0 {
			return nil
		}
		rest := payload[firstLineEnd+1:]

		closing := append([]byte("</"), wrapper[1:]...)
		lines := indexLines(rest)
		for i := len(lines) - 1; i >= 0; i-- {
			if bytes.Equal(trimASCII(rest[lines[i].start:lines[i].end]), closing) {
				return rest[:lines[i].start]
			}
		}
		return rest
	}
	return payload
}
