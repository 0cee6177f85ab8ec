package cli

import (
	"errors"
	"io"
	"os"
	"time"
)

// Format represents the output format type.
type Format string

// Format constants for output selection.
const (
	FormatToon   Format = "toon"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// FormatConfig holds output configuration passed to handlers.
type FormatConfig struct {
	Format  Format
	Quiet   bool
	Verbose bool
}

// SummaryData holds the result of a clean run for formatting.
type SummaryData struct {
	Input       string
	Output      string
	UniqueGenes int
	Rewrites    int
	Duplicates  int
	Skipped     int
	Warnings    int
	Cached      bool
	RunID       string
}

// RunRow holds one recorded run for list display.
type RunRow struct {
	ID          string
	Started     time.Time
	Input       string
	Output      string
	UniqueGenes int
	Rewrites    int
	Cached      bool
}

// Formatter defines the interface for output formatting.
type Formatter interface {
	// FormatSummary renders the counts of a completed clean.
	FormatSummary(w io.Writer, data SummaryData) error
	// FormatRuns renders recorded runs, newest first. An empty list still
	// produces output in the format's own empty shape.
	FormatRuns(w io.Writer, runs []RunRow) error
}

// DetectTTY checks if the given writer is a terminal (TTY).
// Returns false if writer is not an *os.File, if Stat() fails,
// or if the file is not a character device.
func DetectTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// ResolveFormat determines the output format from flags and TTY status.
// Returns error if more than one format flag is set.
// If no flags set, returns Pretty for TTY, Toon for non-TTY.
func ResolveFormat(toonFlag, prettyFlag, jsonFlag, isTTY bool) (Format, error) {
	count := 0
	for _, set := range []bool{toonFlag, prettyFlag, jsonFlag} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", errors.New("cannot specify multiple format flags (--toon, --pretty, --json)")
	}

	switch {
	case toonFlag:
		return FormatToon, nil
	case prettyFlag:
		return FormatPretty, nil
	case jsonFlag:
		return FormatJSON, nil
	case isTTY:
		return FormatPretty, nil
	default:
		return FormatToon, nil
	}
}

// NewFormatConfig creates a FormatConfig from global flags and TTY detection.
func NewFormatConfig(opts GlobalOpts, stdout io.Writer) (FormatConfig, error) {
	format, err := ResolveFormat(opts.Toon, opts.Pretty, opts.JSON, DetectTTY(stdout))
	if err != nil {
		return FormatConfig{}, err
	}

	return FormatConfig{
		Format:  format,
		Quiet:   opts.Quiet,
		Verbose: opts.Verbose,
	}, nil
}

// Formatter returns the appropriate Formatter for the configured format.
func (c FormatConfig) Formatter() Formatter {
	switch c.Format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatPretty:
		return &PrettyFormatter{}
	default:
		return &ToonFormatter{}
	}
}
