package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/leeovery/martclean/internal/mart"
)

// Line is a single non-blank line of the input export, parsed the same way
// clean parses it.
type Line struct {
	// LineNum is the 1-based line number in the file.
	LineNum int
	// Raw is the line with surrounding whitespace trimmed.
	Raw string
	// Record is the parsed record. Zero when Err is set.
	Record mart.RawRecord
	// Err is the *mart.RecordError clean would fail on, if any.
	Err error
}

// Valid reports whether the line parses as a record.
func (l Line) Valid() bool {
	return l.Err == nil
}

// ScanLines reads the export at path and returns every non-blank line with
// its line number and parsed record. Returns error only for file-open
// or read failures; malformed lines carry their parse error in Line.Err.
func ScanLines(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines := []Line{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := mart.ParseRecord(text, lineNum)
		lines = append(lines, Line{
			LineNum: lineNum,
			Raw:     text,
			Record:  rec,
			Err:     err,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return lines, nil
}

type contextKey string

const (
	// InputPathKey is the context key carrying the export path.
	InputPathKey contextKey = "input_path"
	// LinesKey is the context key carrying pre-scanned []Line data.
	LinesKey contextKey = "lines"
)

// WithInput returns a context carrying the export path and, when the scan
// succeeds, its pre-scanned lines so every check reads the file once.
func WithInput(ctx context.Context, path string) context.Context {
	ctx = context.WithValue(ctx, InputPathKey, path)
	if lines, err := ScanLines(path); err == nil {
		ctx = context.WithValue(ctx, LinesKey, lines)
	}
	return ctx
}

// getLines returns line data, first checking the context for pre-scanned
// data and falling back to ScanLines.
func getLines(ctx context.Context) ([]Line, error) {
	if lines, ok := ctx.Value(LinesKey).([]Line); ok {
		return lines, nil
	}
	path, _ := ctx.Value(InputPathKey).(string)
	return ScanLines(path)
}

// fileNotFoundResult returns the standard CheckResult for an unreadable export.
func fileNotFoundResult(checkName string) []CheckResult {
	return []CheckResult{{
		Name:       checkName,
		Passed:     false,
		Severity:   SeverityError,
		Details:    "input file not readable",
		Suggestion: "Verify the --file path",
	}}
}

// firstOccurrences returns the records clean would keep: the first valid
// record for every gene ID, in input order.
func firstOccurrences(lines []Line) []mart.RawRecord {
	table := mart.NewGeneTable()
	for _, l := range lines {
		if l.Valid() {
			table.Add(l.Record)
		}
	}
	return table.Records()
}
