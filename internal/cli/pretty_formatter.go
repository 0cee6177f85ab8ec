package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
)

const timeFormat = "2006-01-02T15:04:05Z"

// PrettyFormatter implements the Formatter interface with human-readable text.
type PrettyFormatter struct{}

// FormatSummary prints one labelled count per line. Zero duplicate, skipped
// and warning counts are omitted.
func (f *PrettyFormatter) FormatSummary(w io.Writer, data SummaryData) error {
	fmt.Fprintf(w, "Isoform suffixes stripped: %d\n", data.Rewrites)
	fmt.Fprintf(w, "Unique gene IDs: %d\n", data.UniqueGenes)
	if data.Duplicates > 0 {
		fmt.Fprintf(w, "Duplicate rows discarded: %d\n", data.Duplicates)
	}
	if data.Skipped > 0 {
		fmt.Fprintf(w, "Malformed lines skipped: %d\n", data.Skipped)
	}
	if data.Warnings > 0 {
		fmt.Fprintf(w, "Warnings: %d\n", data.Warnings)
	}
	source := "cleaned"
	if data.Cached {
		source = "from cache"
	}
	_, err := fmt.Fprintf(w, "Wrote %s (%s)\n", data.Output, source)
	return err
}

// FormatRuns prints an aligned table of runs.
func (f *PrettyFormatter) FormatRuns(w io.Writer, runs []RunRow) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tINPUT\tOUTPUT\tGENES\tREWRITES\tCACHED")
	for _, r := range runs {
		cached := "no"
		if r.Cached {
			cached = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Started.UTC().Format(timeFormat), r.Input, r.Output, r.UniqueGenes, r.Rewrites, cached)
	}
	return tw.Flush()
}
