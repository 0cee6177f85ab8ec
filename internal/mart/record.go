// Package mart canonicalizes BioMart gene/transcript exports. It parses the
// three-column TSV layout, keeps the first record seen for every gene ID and
// rewrites transcript IDs to their unversioned, isoform-free form.
package mart

import (
	"strings"
)

// RawRecord is one parsed input line.
type RawRecord struct {
	GeneID       string
	TranscriptID string
	GeneName     string
	// Line is the 1-based line number the record was read from.
	Line int
}

// CanonicalRecord is one output row.
type CanonicalRecord struct {
	GeneID       string
	TranscriptID string
	GeneName     string
}

// ParseRecord splits a single input line into a RawRecord. Surrounding
// whitespace is trimmed first. Fields beyond the third are ignored; fewer than
// three fields yield a *RecordError.
func ParseRecord(line string, lineNum int) (RawRecord, error) {
	trimmed := strings.TrimSpace(line)
	fields := strings.Split(trimmed, "\t")
	if len(fields) < 3 {
		return RawRecord{}, &RecordError{Line: lineNum, Raw: trimmed, Fields: len(fields)}
	}

	return RawRecord{
		GeneID:       fields[0],
		TranscriptID: fields[1],
		GeneName:     fields[2],
		Line:         lineNum,
	}, nil
}
