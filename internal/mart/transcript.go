package mart

import (
	"regexp"
	"strings"
)

// isoformLetter is the only trailing index letter that gets stripped.
const isoformLetter = "a"

// indexDigits matches the leading digit run of an index segment followed by
// one word character, e.g. "10a" -> "10".
var indexDigits = regexp.MustCompile(`(\d+)\w`)

// TranscriptID is a period-separated transcript identifier such as
// "T13A10.10a.1" (base "T13A10", index "10a", version "1").
type TranscriptID struct {
	Base    string
	Index   string
	Version string
	// Segments is the number of period-separated segments in the raw ID.
	Segments int
}

// ParseTranscriptID splits id on periods. Base, Index and Version are only
// populated when the ID has two or three segments.
func ParseTranscriptID(id string) TranscriptID {
	parts := strings.Split(id, ".")
	t := TranscriptID{Segments: len(parts)}
	switch len(parts) {
	case 3:
		t.Version = parts[2]
		fallthrough
	case 2:
		t.Base = parts[0]
		t.Index = parts[1]
	}
	return t
}

// Versioned reports whether the ID carries a trailing version segment.
func (t TranscriptID) Versioned() bool {
	return t.Segments == 3
}

// HasIsoformSuffix reports whether the index segment ends in the isoform letter.
func (t TranscriptID) HasIsoformSuffix() bool {
	return strings.HasSuffix(t.Index, isoformLetter)
}

// IndexDigits returns the leading digit run of the index segment, or false
// when the index has none.
func (t TranscriptID) IndexDigits() (string, bool) {
	m := indexDigits.FindStringSubmatch(t.Index)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Normalize returns the canonical form of a transcript ID and whether the
// isoform suffix was stripped.
//
// IDs without exactly three segments are returned unchanged. For three
// segments the version is dropped; if the index ends in 'a' only its leading
// digits are kept. An 'a'-suffixed index without digits is a
// *TranscriptIDError.
func Normalize(transcriptID string) (string, bool, error) {
	t := ParseTranscriptID(transcriptID)
	if !t.Versioned() {
		return transcriptID, false, nil
	}

	if t.HasIsoformSuffix() {
		digits, ok := t.IndexDigits()
		if !ok {
			return transcriptID, false, &TranscriptIDError{ID: transcriptID}
		}
		return t.Base + "." + digits, true, nil
	}

	return t.Base + "." + t.Index, false, nil
}
