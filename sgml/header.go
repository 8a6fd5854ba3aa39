package sgml

import (
	"bytes"

	"github.com/lunny/log"
)

/*
Header metadata parsing.

EDGAR emitted three header formats over the years. The modern one
(DashedDefault) nests with explicit <TAG>...</TAG> pairs; the two older ones
(TabDefault, TabPrivacy) nest by indentation, with TabPrivacy carrying a
privacy-enhanced-message preamble before the header proper. All three produce
the same tree shape, and repeated keys at one level always go through
Dict.Add so they merge into position-ordered lists.
*/

// dashedLookahead bounds the search for a closing tag when deciding whether
// a dashed-dialect tag opens a nested block. Real headers close their blocks
// within a handful of lines; the bound keeps the parse linear.
const dashedLookahead = 100

var privacyMarker = []byte("-----BEGIN PRIVACY-ENHANCED MESSAGE-----")

type dashedFrame struct {
	tag  string
	dict *Dict
}

// parseDashedHeader parses the tag-paired dialect into a metadata tree.
func parseDashedHeader(data []byte) *Dict {
	root := NewDict()
	stack := []dashedFrame{{dict: root}}
	lines := indexLines(data)

	for i, line := range lines {
		trimmed := trimASCII(data[line.start:line.end])
		tag, content, ok := splitTag(trimmed)
		if !ok {
			continue
		}
		key := string(toLowerASCII(tag))

		if len(key) > 0 && key[0] == '/' {
			name := key[1:]
			if len(stack) > 1 && stack[len(stack)-1].tag == name {
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				stack[len(stack)-1].dict.Add(frame.tag, frame.dict)
			} else {
				log.Warnf("sgml: unmatched closing tag </%s> in header, ignoring", name)
			}
			continue
		}

		if hasClosingTag(data, lines, i, key) {
			stack = append(stack, dashedFrame{tag: key, dict: NewDict()})
			continue
		}
		if text := trimASCII(content); len(text) > 0 {
			stack[len(stack)-1].dict.Add(key, Text(text))
		}
	}

	for len(stack) > 1 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack[len(stack)-1].dict.Add(frame.tag, frame.dict)
	}
	return root
}

// hasClosingTag looks ahead for a </tag> matching the tag opened at line i.
func hasClosingTag(data []byte, lines []span, i int, key string) bool {
	closing := append([]byte{'/'}, key...)
	end := i + 1 + dashedLookahead
	if end > len(lines) {
		end = len(lines)
	}
	for j := i + 1; j < end; j++ {
		line := trimASCII(data[lines[j].start:lines[j].end])
		tag, _, ok := splitTag(line)
		if !ok {
			continue
		}
		if bytes.Equal(toLowerASCII(tag), closing) {
			return true
		}
	}
	return false
}

type tabFrame struct {
	indent int
	tag    string
	dict   *Dict
}

// parseTabHeader parses the indent-driven dialects. When privacy is set it
// first consumes the privacy-enhanced-message preamble and resumes after it.
func parseTabHeader(data []byte, privacy bool) *Dict {
	root := NewDict()
	resume := 0
	if privacy {
		resume = parsePrivacyPreamble(data, root)
	}

	stack := []tabFrame{{dict: root}}
	for _, line := range indexLines(data) {
		if line.start < resume {
			continue
		}
		raw := data[line.start:line.end]
		trimmed := trimASCII(raw)
		if len(trimmed) == 0 {
			continue
		}

		indent := 0
		for indent < len(raw) && (raw[indent] == ' ' || raw[indent] == '\t') {
			indent++
		}

		var key string
		var content []byte
		if trimmed[0] == '<' && bytes.IndexByte(trimmed, '>') >= 0 {
			tag, rest, ok := splitTag(trimmed)
			if !ok {
				continue
			}
			lowered := toLowerASCII(tag)
			if len(lowered) > 0 && lowered[0] == '/' {
				continue
			}
			key = string(lowered)
			content = rest
		} else if colon := bytes.IndexByte(raw, ':'); colon >= 0 {
			// Greedy first-colon split: colons in values survive, colons in
			// keys are not representable.
			key = string(toLowerASCII(trimASCII(raw[:colon])))
			content = raw[colon+1:]
		} else {
			continue
		}
		if key == "" {
			continue
		}

		for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].dict.Add(frame.tag, frame.dict)
		}

		if text := trimASCII(content); len(text) > 0 {
			stack[len(stack)-1].dict.Add(key, Text(text))
		} else {
			stack = append(stack, tabFrame{indent: indent, tag: key, dict: NewDict()})
		}
	}

	for len(stack) > 1 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack[len(stack)-1].dict.Add(frame.tag, frame.dict)
	}
	return root
}

// parsePrivacyPreamble collects the message lines that follow the privacy
// marker, stores them under privacy-enhanced-message, and returns the offset
// at which header parsing resumes. Collection stops at the first empty line
// or the first line holding a '<' followed by an uppercase letter, which is
// where the real header begins.
func parsePrivacyPreamble(data []byte, root *Dict) int {
	lines := indexLines(data)
	i := 0
	for ; i < len(lines); i++ {
		if bytes.HasPrefix(trimASCII(data[lines[i].start:lines[i].end]), privacyMarker) {
			break
		}
	}
	if i == len(lines) {
		return 0
	}

	var message [][]byte
	resume := len(data)
	for i++; i < len(lines); i++ {
		raw := data[lines[i].start:lines[i].end]
		trimmed := trimASCII(raw)
		if len(trimmed) == 0 || startsHeaderTag(raw) {
			resume = lines[i].start
			break
		}
		message = append(message, trimmed)
	}

	if len(message) > 0 {
		root.Add("privacy-enhanced-message", Text(bytes.Join(message, []byte("\n"))))
	}
	return resume
}

// startsHeaderTag reports whether the line contains a '<' with an uppercase
// ASCII letter somewhere after it.
func startsHeaderTag(line []byte) bool {
	open := bytes.IndexByte(line, '<')
	if open < 0 {
		return false
	}
	for _, b := range line[open+1:] {
		if b >= 'A' && b <= 'Z' {
			return true
		}
	}
	return false
}
