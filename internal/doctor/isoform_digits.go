package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/leeovery/martclean/internal/mart"
)

// IsoformDigitsCheck reports kept rows whose transcript index ends in 'a' but
// has no leading digits to keep. Clean aborts on these unless
// --skip-malformed is given.
type IsoformDigitsCheck struct{}

// Run executes the isoform digits check.
func (c *IsoformDigitsCheck) Run(ctx context.Context) []CheckResult {
	const name = "Isoform suffix"

	lines, err := getLines(ctx)
	if err != nil {
		return fileNotFoundResult(name)
	}

	var failures []CheckResult
	for _, rec := range firstOccurrences(lines) {
		_, _, err := mart.Normalize(rec.TranscriptID)
		if !errors.Is(err, mart.ErrMalformedTranscriptID) {
			continue
		}
		failures = append(failures, CheckResult{
			Name:       name,
			Passed:     false,
			Severity:   SeverityError,
			Details:    fmt.Sprintf("Line %d: gene %s: %v", rec.Line, rec.GeneID, err),
			Suggestion: "Fix the transcript ID or clean with --skip-malformed to keep it unchanged",
		})
	}

	if len(failures) > 0 {
		return failures
	}
	return []CheckResult{{Name: name, Passed: true}}
}
