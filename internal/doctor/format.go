package doctor

import (
	"fmt"
	"io"
)

// FormatReport writes a human-readable representation of the report. Passing
// checks print a ✓ line; each failure prints a ✗ line with its suggestion.
func FormatReport(w io.Writer, report DiagnosticReport) {
	for _, r := range report.Results {
		if r.Passed {
			fmt.Fprintf(w, "✓ %s: OK\n", r.Name)
			continue
		}
		marker := "✗"
		if r.Severity == SeverityWarning {
			marker = "!"
		}
		fmt.Fprintf(w, "%s %s: %s\n", marker, r.Name, r.Details)
		if r.Suggestion != "" {
			fmt.Fprintf(w, "  → %s\n", r.Suggestion)
		}
	}

	if len(report.Results) > 0 {
		fmt.Fprint(w, "\n")
	}

	errs, warns := report.ErrorCount(), report.WarningCount()
	if errs == 0 && warns == 0 {
		fmt.Fprint(w, "No issues found.\n")
		return
	}
	fmt.Fprintf(w, "%s, %s.\n", plural(errs, "error"), plural(warns, "warning"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ExitCode returns 0 when the report has no error-severity failures
// (warnings allowed) and 1 otherwise.
func ExitCode(report DiagnosticReport) int {
	if report.HasErrors() {
		return 1
	}
	return 0
}
