package mart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single input line. BioMart rows are short; this only
// guards against reading a binary file by mistake.
const maxLineSize = 1024 * 1024

// Policy decides what happens to malformed input.
type Policy string

const (
	// PolicyAbort fails the whole run on the first malformed line or ID.
	PolicyAbort Policy = "abort"
	// PolicySkip drops malformed lines and passes malformed IDs through
	// unchanged, logging a warning for each.
	PolicySkip Policy = "skip"
)

// Logger is an optional sink for verbose and warning messages.
type Logger interface {
	Log(msg string)
}

func logf(l Logger, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.Log(fmt.Sprintf(format, args...))
}

// GeneTable maps gene IDs to the first record seen for them and remembers the
// order in which gene IDs were first encountered.
type GeneTable struct {
	records map[string]RawRecord
	order   []string
}

// NewGeneTable creates an empty GeneTable.
func NewGeneTable() *GeneTable {
	return &GeneTable{records: make(map[string]RawRecord)}
}

// Add inserts rec unless its gene ID is already present. It returns true
// when the record was inserted.
func (t *GeneTable) Add(rec RawRecord) bool {
	if _, exists := t.records[rec.GeneID]; exists {
		return false
	}
	t.records[rec.GeneID] = rec
	t.order = append(t.order, rec.GeneID)
	return true
}

// Get returns the record kept for geneID.
func (t *GeneTable) Get(geneID string) (RawRecord, bool) {
	rec, ok := t.records[geneID]
	return rec, ok
}

// Len returns the number of distinct gene IDs.
func (t *GeneTable) Len() int {
	return len(t.order)
}

// Records returns the kept records in input encounter order.
func (t *GeneTable) Records() []RawRecord {
	out := make([]RawRecord, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.records[id])
	}
	return out
}

// IngestOptions configures Ingest.
type IngestOptions struct {
	Policy Policy
	Logger Logger
}

// IngestStats counts what Ingest saw.
type IngestStats struct {
	// Lines is the number of lines read, blank ones included.
	Lines int
	// Blank is the number of empty or whitespace-only lines.
	Blank int
	// Duplicates is the number of records discarded because their gene ID
	// had already been seen.
	Duplicates int
	// Skipped is the number of malformed lines dropped under PolicySkip.
	Skipped  int
	Warnings []Warning
}

// Ingest reads raw TSV lines from r into a GeneTable. The first line is data;
// no header is skipped. Blank lines are ignored.
func Ingest(r io.Reader, opts IngestOptions) (*GeneTable, IngestStats, error) {
	table := NewGeneTable()
	var stats IngestStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		stats.Lines++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			stats.Blank++
			continue
		}

		rec, err := ParseRecord(line, stats.Lines)
		if err != nil {
			if opts.Policy == PolicySkip && errors.Is(err, ErrMalformedRecord) {
				stats.Skipped++
				stats.Warnings = append(stats.Warnings, Warning{Line: stats.Lines, Message: err.Error()})
				logf(opts.Logger, "ingest: skipped malformed line %d", stats.Lines)
				continue
			}
			return nil, stats, err
		}

		if !table.Add(rec) {
			stats.Duplicates++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read input: %w", err)
	}

	logf(opts.Logger, "ingest: %d lines, %d unique gene IDs, %d duplicates discarded", stats.Lines, table.Len(), stats.Duplicates)
	return table, stats, nil
}
