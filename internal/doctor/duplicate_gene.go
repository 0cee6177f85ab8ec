package doctor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DuplicateGeneCheck warns about gene IDs that appear on more than one line.
// Clean keeps the first and discards the rest, so this is never an error.
type DuplicateGeneCheck struct{}

// Run executes the duplicate gene check. Groups are reported in the order
// their gene ID first appears.
func (c *DuplicateGeneCheck) Run(ctx context.Context) []CheckResult {
	const name = "Gene ID uniqueness"

	lines, err := getLines(ctx)
	if err != nil {
		return fileNotFoundResult(name)
	}

	groups := make(map[string][]int)
	var keyOrder []string
	for _, l := range lines {
		if !l.Valid() {
			continue
		}
		geneID := l.Record.GeneID
		if _, seen := groups[geneID]; !seen {
			keyOrder = append(keyOrder, geneID)
		}
		groups[geneID] = append(groups[geneID], l.LineNum)
	}

	var failures []CheckResult
	for _, geneID := range keyOrder {
		lineNums := groups[geneID]
		if len(lineNums) <= 1 {
			continue
		}

		parts := make([]string, len(lineNums))
		for i, n := range lineNums {
			parts[i] = strconv.Itoa(n)
		}

		failures = append(failures, CheckResult{
			Name:       name,
			Passed:     false,
			Severity:   SeverityWarning,
			Details:    fmt.Sprintf("Gene %s appears on %d lines: %s", geneID, len(lineNums), strings.Join(parts, ", ")),
			Suggestion: fmt.Sprintf("Line %d is kept; the others are discarded", lineNums[0]),
		})
	}

	if len(failures) > 0 {
		return failures
	}
	return []CheckResult{{Name: name, Passed: true}}
}
