/*
Package sgml parses SEC EDGAR SGML submissions.

An EDGAR submission is a single text artifact bundling a header of nested
key/value metadata with a sequence of embedded documents whose bodies may be
plain text, markup, or UU-encoded binary. Parse returns the header metadata
as an insertion-ordered tree together with every document payload, decoded
where necessary, in filing order.

The parser is a pure function of its input: it performs no I/O (ParseFile
aside), keeps no state between calls, and may be run concurrently on
separate inputs. It borrows the input buffer for the duration of the call
and only copies bytes when decoding or producing the payloads it returns.

Malformed input within a recognized dialect never fails the parse: unmatched
tags are skipped, documents without a text section are dropped, and broken
UU lines decode as far as their bytes allow.
*/
package sgml

import (
	"errors"
	"fmt"
	"os"

	"github.com/lunny/log"
)

// SubmissionType identifies the header dialect of a submission.
type SubmissionType int

const (
	// DashedDefault is the modern dialect with <TAG>...</TAG> nesting. Its
	// first line begins with <SUBMISSION>.
	DashedDefault SubmissionType = iota
	// TabPrivacy is the indent-nested dialect preceded by a
	// privacy-enhanced-message preamble.
	TabPrivacy
	// TabDefault is the indent-nested dialect. Its first line begins with
	// <SEC-DOCUMENT>.
	TabDefault
)

// String returns the dialect name as EDGAR tooling spells it.
func (submissionType SubmissionType) String() string {
	switch submissionType {
	case DashedDefault:
		return "dashed-default"
	case TabPrivacy:
		return "tab-privacy"
	case TabDefault:
		return "tab-default"
	}
	return "unknown"
}

var (
	// ErrInvalidContent is returned for an empty or otherwise unusable buffer.
	ErrInvalidContent = errors.New("invalid content")
	// ErrUnknownSubmissionType is returned when the first line matches no
	// known dialect marker.
	ErrUnknownSubmissionType = errors.New("unknown submission type")
)

// Submission is a parsed EDGAR filing. Documents[i] is the payload of the
// i-th entry of the metadata tree's "documents" list.
type Submission struct {
	Type      SubmissionType
	Metadata  *Dict
	Documents [][]byte
}

var readFileFn = os.ReadFile

var dialectMarkers = []struct {
	marker []byte
	kind   SubmissionType
}{
	{[]byte("<SUBMISSION>"), DashedDefault},
	{privacyMarker, TabPrivacy},
	{[]byte("<SEC-DOCUMENT>"), TabDefault},
}

// DetectType determines the submission dialect from the first non-empty
// line of data.
func DetectType(data []byte) (SubmissionType, error) {
	for _, line := range indexLines(data) {
		raw := data[line.start:line.end]
		if len(trimASCII(raw)) == 0 {
			continue
		}
		for _, dialect := range dialectMarkers {
			if hasPrefixAt(raw, dialect.marker, 0) {
				return dialect.kind, nil
			}
		}
		if len(raw) > 100 {
			raw = raw[:100]
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownSubmissionType, raw)
	}
	return 0, fmt.Errorf("%w: empty input", ErrInvalidContent)
}

// Parse parses a complete submission held in memory and returns its
// metadata tree and document payloads.
func Parse(data []byte) (*Submission, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidContent)
	}
	submissionType, err := DetectType(data)
	if err != nil {
		return nil, err
	}

	index := buildIndex(data)

	var metadata *Dict
	if submissionType == DashedDefault {
		metadata = parseDashedHeader(data[:index.headerEnd])
	} else {
		metadata = parseTabHeader(data[:index.headerEnd], submissionType == TabPrivacy)
	}

	documentMetadata := List{}
	documents := make([][]byte, 0, len(index.documents))
	for _, document := range index.documents {
		text, ok := index.textWithin(document)
		if !ok {
			log.Warnf("sgml: document at offset %d has no text section, skipping", document.start)
			continue
		}

		documentMetadata = append(documentMetadata,
			parseDocumentMetadata(data[document.start+len(documentOpen):text.start]))

		payload := data[text.start+len(textOpen) : text.end]
		if leftover, ok := index.leftovers[text.end]; ok {
			combined := make([]byte, 0, len(payload)+leftover.len())
			combined = append(combined, payload...)
			combined = append(combined, data[leftover.start:leftover.end]...)
			documents = append(documents, processText(combined))
		} else {
			documents = append(documents, processText(payload))
		}
	}
	metadata.Set("documents", documentMetadata)

	return &Submission{
		Type:      submissionType,
		Metadata:  metadata,
		Documents: documents,
	}, nil
}

// ParseFile reads path and parses it as a submission.
func ParseFile(path string) (*Submission, error) {
	data, err := readFileFn(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}
