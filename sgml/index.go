package sgml

import "bytes"

/*
Structural indexing.

One pass over the buffer locates the header, every <DOCUMENT> block, and
every <TEXT> block before any metadata parsing happens, so the parsers only
ever look at the slices that concern them. The literals are matched verbatim
and case-sensitively; EDGAR emits them uppercase.
*/

var (
	documentOpen  = []byte("<DOCUMENT>")
	documentClose = []byte("</DOCUMENT>")
	textOpen      = []byte("<TEXT>")
	textClose     = []byte("</TEXT>")
)

// structuralIndex records where the header, documents, and text segments sit
// in the input buffer. Document and text spans run from the opening tag's
// first byte to the closing tag's first byte.
type structuralIndex struct {
	headerEnd int
	documents []span
	texts     []span
	// leftovers maps a text span's end offset to the non-whitespace bytes
	// that follow </TEXT> on the same line. Some filings park trailing
	// payload bytes there; they belong to the document.
	leftovers map[int]span
}

// textWithin returns the first text span strictly inside the document span.
func (index *structuralIndex) textWithin(document span) (span, bool) {
	for _, text := range index.texts {
		if text.start > document.start && text.end < document.end {
			return text, true
		}
	}
	return span{}, false
}

// buildIndex scans data once and returns the structural index.
func buildIndex(data []byte) *structuralIndex {
	index := &structuralIndex{
		headerEnd: len(data),
		leftovers: make(map[int]span),
	}

	if first := bytes.Index(data, documentOpen); first >= 0 {
		index.headerEnd = first
	}

	// Pair <DOCUMENT> and </DOCUMENT> in order. An open without a close is
	// discarded.
	pos := 0
	for {
		open := bytes.Index(data[pos:], documentOpen)
		if open < 0 {
			break
		}
		open += pos
		closeTag := bytes.Index(data[open+len(documentOpen):], documentClose)
		if closeTag < 0 {
			break
		}
		closeTag += open + len(documentOpen)
		index.documents = append(index.documents, span{open, closeTag})
		pos = closeTag + len(documentClose)
	}

	// Pair each <TEXT> with the nearest acceptable </TEXT>. A close is
	// acceptable when, leftover bytes on its own line aside, only whitespace
	// separates it from </DOCUMENT>; anything else is a spurious marker
	// inside an embedded payload and the search moves to the next candidate.
	pos = 0
	for {
		open := bytes.Index(data[pos:], textOpen)
		if open < 0 {
			break
		}
		open += pos
		closeTag, leftover, ok := findTextClose(data, open+len(textOpen))
		if !ok {
			pos = open + len(textOpen)
			continue
		}
		index.texts = append(index.texts, span{open, closeTag})
		if leftover.len() > 0 {
			index.leftovers[closeTag] = leftover
		}
		pos = closeTag + len(textClose)
	}

	return index
}

// findTextClose scans forward from pos for a </TEXT> that is followed by
// optional same-line leftover bytes, then whitespace, then </DOCUMENT>.
func findTextClose(data []byte, pos int) (closeTag int, leftover span, ok bool) {
	for {
		candidate := bytes.Index(data[pos:], textClose)
		if candidate < 0 {
			return 0, span{}, false
		}
		candidate += pos
		if leftover, ok = acceptTextClose(data, candidate); ok {
			return candidate, leftover, true
		}
		pos = candidate + len(textClose)
	}
}

// acceptTextClose checks the bytes after a </TEXT> candidate. The remainder
// of the candidate's own line may hold leftover payload bytes; after that
// line only whitespace may precede </DOCUMENT>.
func acceptTextClose(data []byte, closeTag int) (span, bool) {
	pos := closeTag + len(textClose)
	leftover := span{pos, pos}

	// Same conceptual line: collect bytes until the line ends or the
	// document close begins.
	for pos < len(data) && data[pos] != '\n' && !hasPrefixAt(data, documentClose, pos) {
		if !isASCIISpace(data[pos]) {
			if leftover.len() == 0 {
				leftover.start = pos
			}
			leftover.end = pos + 1
		}
		pos++
	}

	// Beyond the line, only whitespace may appear before </DOCUMENT>.
	for pos < len(data) && isASCIISpace(data[pos]) {
		pos++
	}
	if !hasPrefixAt(data, documentClose, pos) {
		return span{}, false
	}
	return leftover, true
}

func hasPrefixAt(data, prefix []byte, pos int) bool {
	return pos+len(prefix) <= len(data) && bytes.Equal(data[pos:pos+len(prefix)], prefix)
}
