package mart

import (
	"errors"
	"io"
)

// Warning records a row that was passed through unchanged under PolicySkip.
type Warning struct {
	Line    int
	GeneID  string
	Message string
}

// Result is the canonicalized table plus its summary counts.
type Result struct {
	// Records are in input encounter order of their gene IDs.
	Records []CanonicalRecord
	// RewriteCount is the number of rows whose isoform suffix was stripped.
	RewriteCount int
	// UniqueGeneCount is the number of distinct gene IDs in the input.
	UniqueGeneCount int
	Warnings        []Warning
}

// EmitOptions configures Emit.
type EmitOptions struct {
	Policy Policy
	Logger Logger
}

// Emit normalizes every record in the table and returns the canonical rows.
func Emit(table *GeneTable, opts EmitOptions) (Result, error) {
	result := Result{
		Records:         make([]CanonicalRecord, 0, table.Len()),
		UniqueGeneCount: table.Len(),
	}

	for _, rec := range table.Records() {
		canonical, rewritten, err := Normalize(rec.TranscriptID)
		if err != nil {
			var idErr *TranscriptIDError
			if !errors.As(err, &idErr) {
				return Result{}, err
			}
			idErr.GeneID = rec.GeneID
			idErr.Line = rec.Line
			if opts.Policy != PolicySkip {
				return Result{}, idErr
			}
			result.Warnings = append(result.Warnings, Warning{
				Line:    rec.Line,
				GeneID:  rec.GeneID,
				Message: idErr.Error(),
			})
			logf(opts.Logger, "emit: kept transcript ID %s unchanged (line %d)", rec.TranscriptID, rec.Line)
			canonical = rec.TranscriptID
		}

		if rewritten {
			result.RewriteCount++
		}
		result.Records = append(result.Records, CanonicalRecord{
			GeneID:       rec.GeneID,
			TranscriptID: canonical,
			GeneName:     rec.GeneName,
		})
	}

	logf(opts.Logger, "emit: %d rows, %d isoform suffixes stripped", len(result.Records), result.RewriteCount)
	return result, nil
}

// Options configures Clean.
type Options struct {
	Policy Policy
	Logger Logger
}

// Clean ingests r and emits its canonical table in one pass.
func Clean(r io.Reader, opts Options) (Result, IngestStats, error) {
	table, stats, err := Ingest(r, IngestOptions{Policy: opts.Policy, Logger: opts.Logger})
	if err != nil {
		return Result{}, stats, err
	}
	result, err := Emit(table, EmitOptions{Policy: opts.Policy, Logger: opts.Logger})
	if err != nil {
		return Result{}, stats, err
	}
	if len(stats.Warnings) > 0 {
		result.Warnings = append(append([]Warning{}, stats.Warnings...), result.Warnings...)
	}
	return result, stats, nil
}
