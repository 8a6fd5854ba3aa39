package sgml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestIndexLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []span
	}{
		{"unix endings", "a\nbb\n", []span{{0, 1}, {2, 4}}},
		{"windows endings", "a\r\nbb\r\n", []span{{0, 1}, {3, 5}}},
		{"no trailing newline", "a\nbb", []span{{0, 1}, {2, 4}}},
		{"empty middle line", "a\n\nb\n", []span{{0, 1}, {2, 2}, {3, 4}}},
		{"empty input", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := indexLines([]byte(tt.input))
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(span{}), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("indexLines(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTrimASCII(t *testing.T) {
	if got := trimASCII([]byte(" \t\r\n x \t\r\n ")); string(got) != "x" {
		t.Errorf("trimASCII = %q, want %q", got, "x")
	}
	if got := trimASCII([]byte("\r\n")); len(got) != 0 {
		t.Errorf("trimASCII of whitespace = %q, want empty", got)
	}
}

func TestToLowerASCII(t *testing.T) {
	if got := toLowerASCII([]byte("ACCESSION-NUMBER")); string(got) != "accession-number" {
		t.Errorf("toLowerASCII = %q", got)
	}
	// Non-ASCII bytes pass through uncorrupted.
	input := []byte("T\xc3\x9cV")
	if got := toLowerASCII(input); string(got) != "t\xc3\x9cv" {
		t.Errorf("toLowerASCII(%q) = %q", input, got)
	}
}

func TestSplitTag(t *testing.T) {
	tag, content, ok := splitTag([]byte("<TYPE>10-K"))
	if !ok || string(tag) != "TYPE" || string(content) != "10-K" {
		t.Errorf("splitTag = %q, %q, %v", tag, content, ok)
	}

	if _, _, ok := splitTag([]byte("<NEVER-CLOSED")); ok {
		t.Error("splitTag accepted a line without '>'")
	}
	if _, _, ok := splitTag([]byte("no tag here")); ok {
		t.Error("splitTag accepted a line without '<'")
	}
	if _, _, ok := splitTag(nil); ok {
		t.Error("splitTag accepted empty input")
	}
}
