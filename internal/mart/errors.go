package mart

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when an input line does not split into
	// at least three tab-separated fields.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMalformedTranscriptID is returned when an index segment ends in the
	// isoform letter but carries no leading digit run to keep.
	ErrMalformedTranscriptID = errors.New("malformed transcript ID")
)

// RecordError describes a single malformed input line.
type RecordError struct {
	Line   int
	Raw    string
	Fields int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: expected 3 tab-separated fields, got %d: %q", e.Line, e.Fields, e.Raw)
}

// Unwrap allows errors.Is(err, ErrMalformedRecord).
func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}

// TranscriptIDError describes a transcript ID whose isoform suffix cannot be
// stripped. GeneID and Line are filled in when the error surfaces from Emit.
type TranscriptIDError struct {
	ID     string
	GeneID string
	Line   int
}

func (e *TranscriptIDError) Error() string {
	if e.GeneID == "" {
		return fmt.Sprintf("transcript ID %q: index ends in 'a' but has no leading digits", e.ID)
	}
	return fmt.Sprintf("line %d: gene %s: transcript ID %q: index ends in 'a' but has no leading digits", e.Line, e.GeneID, e.ID)
}

// Unwrap allows errors.Is(err, ErrMalformedTranscriptID).
func (e *TranscriptIDError) Unwrap() error {
	return ErrMalformedTranscriptID
}
