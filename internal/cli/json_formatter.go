package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter implements the Formatter interface using JSON output.
// All keys use snake_case. Output is 2-space indented via json.MarshalIndent.
type JSONFormatter struct{}

type jsonSummary struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	UniqueGenes int    `json:"unique_genes"`
	Rewrites    int    `json:"rewrites"`
	Duplicates  int    `json:"duplicates"`
	Skipped     int    `json:"skipped"`
	Warnings    int    `json:"warnings"`
	Cached      bool   `json:"cached"`
	RunID       string `json:"run_id,omitempty"`
}

type jsonRun struct {
	ID          string `json:"id"`
	Started     string `json:"started"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	UniqueGenes int    `json:"unique_genes"`
	Rewrites    int    `json:"rewrites"`
	Cached      bool   `json:"cached"`
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// FormatSummary renders the clean summary as a JSON object.
func (f *JSONFormatter) FormatSummary(w io.Writer, data SummaryData) error {
	return writeJSON(w, jsonSummary(data))
}

// FormatRuns renders runs as a JSON array; empty input produces [].
func (f *JSONFormatter) FormatRuns(w io.Writer, runs []RunRow) error {
	rows := make([]jsonRun, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, jsonRun{
			ID:          r.ID,
			Started:     r.Started.UTC().Format(timeFormat),
			Input:       r.Input,
			Output:      r.Output,
			UniqueGenes: r.UniqueGenes,
			Rewrites:    r.Rewrites,
			Cached:      r.Cached,
		})
	}
	return writeJSON(w, rows)
}
