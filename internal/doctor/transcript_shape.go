package doctor

import (
	"context"
	"fmt"
	"unicode"

	"github.com/leeovery/martclean/internal/mart"
)

// TranscriptShapeCheck warns about transcript IDs that clean passes through
// in a form that may not be what the caller expects: IDs with neither two nor
// three segments, and versioned IDs whose index ends in a lowercase isoform
// letter other than 'a'. Only the rows clean keeps are inspected.
type TranscriptShapeCheck struct{}

// Run executes the transcript shape check.
func (c *TranscriptShapeCheck) Run(ctx context.Context) []CheckResult {
	const name = "Transcript ID shape"

	lines, err := getLines(ctx)
	if err != nil {
		return fileNotFoundResult(name)
	}

	var failures []CheckResult
	for _, rec := range firstOccurrences(lines) {
		raw := rec.TranscriptID
		id := mart.ParseTranscriptID(raw)

		switch {
		case id.Segments != 2 && id.Segments != 3:
			failures = append(failures, CheckResult{
				Name:       name,
				Passed:     false,
				Severity:   SeverityWarning,
				Details:    fmt.Sprintf("Line %d: transcript ID %s has %d segments", rec.Line, raw, id.Segments),
				Suggestion: "It will be written unchanged",
			})
		case id.Versioned() && !id.HasIsoformSuffix() && endsInLowerLetter(id.Index):
			failures = append(failures, CheckResult{
				Name:       name,
				Passed:     false,
				Severity:   SeverityWarning,
				Details:    fmt.Sprintf("Line %d: transcript ID %s has isoform letter %q", rec.Line, raw, id.Index[len(id.Index)-1:]),
				Suggestion: "Only the 'a' isoform letter is stripped; the version is still dropped",
			})
		}
	}

	if len(failures) > 0 {
		return failures
	}
	return []CheckResult{{Name: name, Passed: true}}
}

func endsInLowerLetter(s string) bool {
	if s == "" {
		return false
	}
	r := rune(s[len(s)-1])
	return r < unicode.MaxASCII && unicode.IsLower(r)
}
