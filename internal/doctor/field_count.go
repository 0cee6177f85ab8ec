package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/leeovery/martclean/internal/mart"
)

// FieldCountCheck reports every line that mart.ParseRecord rejects, which
// are the lines without at least three tab-separated fields. Such lines abort a clean run unless --skip-malformed
// is given.
type FieldCountCheck struct{}

// Run executes the field count check.
func (c *FieldCountCheck) Run(ctx context.Context) []CheckResult {
	const name = "Field count"

	lines, err := getLines(ctx)
	if err != nil {
		return fileNotFoundResult(name)
	}

	var failures []CheckResult
	for _, l := range lines {
		if l.Valid() {
			continue
		}
		details := fmt.Sprintf("Line %d: %v", l.LineNum, l.Err)
		var recErr *mart.RecordError
		if errors.As(l.Err, &recErr) {
			details = fmt.Sprintf("Line %d: expected 3 tab-separated fields, got %d", l.LineNum, recErr.Fields)
		}
		failures = append(failures, CheckResult{
			Name:       name,
			Passed:     false,
			Severity:   SeverityError,
			Details:    details,
			Suggestion: "Fix the row or clean with --skip-malformed",
		})
	}

	if len(failures) > 0 {
		return failures
	}
	return []CheckResult{{Name: name, Passed: true}}
}
