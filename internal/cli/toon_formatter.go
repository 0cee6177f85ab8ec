package cli

import (
	"fmt"
	"io"

	toon "github.com/toon-format/toon-go"
)

const runsSchema = "runs[0]{id,started,input,output,unique_genes,rewrites,cached}:"

// ToonFormatter implements the Formatter interface using TOON format.
// TOON (Token-Oriented Object Notation) keeps output compact for scripts
// and agents reading the summary.
type ToonFormatter struct{}

// FormatSummary renders the clean summary as a single TOON object.
func (f *ToonFormatter) FormatSummary(w io.Writer, data SummaryData) error {
	fields := []toon.Field{
		{Key: "input", Value: data.Input},
		{Key: "output", Value: data.Output},
		{Key: "unique_genes", Value: data.UniqueGenes},
		{Key: "rewrites", Value: data.Rewrites},
		{Key: "duplicates", Value: data.Duplicates},
		{Key: "skipped", Value: data.Skipped},
		{Key: "warnings", Value: data.Warnings},
		{Key: "cached", Value: data.Cached},
	}
	if data.RunID != "" {
		fields = append(fields, toon.Field{Key: "run_id", Value: data.RunID})
	}

	doc := toon.NewObject(toon.Field{Key: "summary", Value: toon.NewObject(fields...)})
	result, err := toon.MarshalString(doc)
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, result)
	return err
}

// FormatRuns renders runs in TOON tabular format. Empty lists produce the
// schema header with no rows.
func (f *ToonFormatter) FormatRuns(w io.Writer, runs []RunRow) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, runsSchema)
		return err
	}

	objects := make([]toon.Object, len(runs))
	for i, r := range runs {
		objects[i] = toon.NewObject(
			toon.Field{Key: "id", Value: r.ID},
			toon.Field{Key: "started", Value: r.Started.UTC().Format(timeFormat)},
			toon.Field{Key: "input", Value: r.Input},
			toon.Field{Key: "output", Value: r.Output},
			toon.Field{Key: "unique_genes", Value: r.UniqueGenes},
			toon.Field{Key: "rewrites", Value: r.Rewrites},
			toon.Field{Key: "cached", Value: r.Cached},
		)
	}

	doc := toon.NewObject(toon.Field{Key: "runs", Value: objects})
	result, err := toon.MarshalString(doc)
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, result)
	return err
}
