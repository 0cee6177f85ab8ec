package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leeovery/martclean/internal/mart"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mart_export.tsv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}
	return path
}

func ctxWithExport(t *testing.T, content string) context.Context {
	t.Helper()
	return WithInput(context.Background(), writeExport(t, content))
}

func failures(results []CheckResult) []CheckResult {
	var out []CheckResult
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func TestScanLines(t *testing.T) {
	t.Run("it skips blank lines but keeps file line numbers", func(t *testing.T) {
		path := writeExport(t, "G1\tT1.1.1\tn1\n\nG2\tT2.1.1\tn2\n")

		lines, err := ScanLines(path)
		if err != nil {
			t.Fatalf("ScanLines() returned error: %v", err)
		}
		if len(lines) != 2 || lines[1].LineNum != 3 {
			t.Errorf("lines = %+v, want 2 lines with second on line 3", lines)
		}
		if !lines[0].Valid() || lines[0].Record.GeneID != "G1" || lines[0].Record.Line != 1 {
			t.Errorf("line 1 = %+v, want valid record for G1 on line 1", lines[0])
		}
	})

	t.Run("it attaches the parse error to malformed lines", func(t *testing.T) {
		lines, err := ScanLines(writeExport(t, "G1\tT1.1.1\n"))
		if err != nil {
			t.Fatalf("ScanLines() returned error: %v", err)
		}
		if len(lines) != 1 || !errors.Is(lines[0].Err, mart.ErrMalformedRecord) {
			t.Errorf("lines = %+v, want one line with ErrMalformedRecord", lines)
		}
	})

	t.Run("it agrees with clean on malformed lines and kept records", func(t *testing.T) {
		content := "  G1\tT1.1.1\tn1\t\textra\nG2\tT2.1\nG1\tT9.9.9\tdup\n\t\tG3\nG3\tT3.1a.1\tn3 \n"

		lines, err := ScanLines(writeExport(t, content))
		if err != nil {
			t.Fatalf("ScanLines() returned error: %v", err)
		}
		table, stats, err := mart.Ingest(strings.NewReader(content), mart.IngestOptions{Policy: mart.PolicySkip})
		if err != nil {
			t.Fatalf("Ingest() returned error: %v", err)
		}

		invalid := 0
		for _, l := range lines {
			if !l.Valid() {
				invalid++
			}
		}
		if invalid != stats.Skipped {
			t.Errorf("invalid lines = %d, clean skipped %d", invalid, stats.Skipped)
		}
		if got, want := firstOccurrences(lines), table.Records(); !reflect.DeepEqual(got, want) {
			t.Errorf("firstOccurrences() = %+v, clean keeps %+v", got, want)
		}
	})

	t.Run("it returns an error for a missing file", func(t *testing.T) {
		if _, err := ScanLines(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestFieldCountCheck(t *testing.T) {
	t.Run("it passes when every line has three fields", func(t *testing.T) {
		results := (&FieldCountCheck{}).Run(ctxWithExport(t, "G1\tT1.1.1\tn1\nG2\tT2.1\tn2\n"))
		if len(results) != 1 || !results[0].Passed {
			t.Errorf("results = %+v, want single pass", results)
		}
	})

	t.Run("it reports each short line as an error", func(t *testing.T) {
		results := (&FieldCountCheck{}).Run(ctxWithExport(t, "G1\tT1.1.1\tn1\nG2\tT2.1\nG3\n"))
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Severity != SeverityError || !strings.Contains(results[0].Details, "Line 2") {
			t.Errorf("results[0] = %+v, want error for line 2", results[0])
		}
		if !strings.Contains(results[1].Details, "Line 3") || !strings.Contains(results[1].Details, "got 1") {
			t.Errorf("results[1] = %+v, want error for line 3 with 1 field", results[1])
		}
	})

	t.Run("it reports an unreadable file", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), InputPathKey, filepath.Join(t.TempDir(), "missing.tsv"))
		results := (&FieldCountCheck{}).Run(ctx)
		if len(results) != 1 || results[0].Passed || results[0].Severity != SeverityError {
			t.Errorf("results = %+v, want single error", results)
		}
	})
}

func TestDuplicateGeneCheck(t *testing.T) {
	t.Run("it passes when gene IDs are unique", func(t *testing.T) {
		results := (&DuplicateGeneCheck{}).Run(ctxWithExport(t, "G1\tT1.1.1\tn1\nG2\tT2.1.1\tn2\n"))
		if len(failures(results)) != 0 {
			t.Errorf("results = %+v, want pass", results)
		}
	})

	t.Run("it warns once per duplicated gene with every line number", func(t *testing.T) {
		content := "G1\tT1.1.1\tn1\nG2\tT2.1.1\tn2\nG1\tT1.2.1\tx\nG1\tT1.3.1\ty\n"
		results := (&DuplicateGeneCheck{}).Run(ctxWithExport(t, content))

		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		r := results[0]
		if r.Passed || r.Severity != SeverityWarning {
			t.Errorf("result = %+v, want warning", r)
		}
		if !strings.Contains(r.Details, "Gene G1 appears on 3 lines: 1, 3, 4") {
			t.Errorf("Details = %q", r.Details)
		}
		if !strings.Contains(r.Suggestion, "Line 1 is kept") {
			t.Errorf("Suggestion = %q", r.Suggestion)
		}
	})
}

func TestTranscriptShapeCheck(t *testing.T) {
	t.Run("it passes for versioned and unversioned IDs", func(t *testing.T) {
		results := (&TranscriptShapeCheck{}).Run(ctxWithExport(t, "G1\tT13A10.10a.1\tn1\nG2\tF07C3.7\tn2\nG3\tF07C3.7.1\tn3\n"))
		if len(failures(results)) != 0 {
			t.Errorf("results = %+v, want pass", results)
		}
	})

	t.Run("it warns about unexpected segment counts", func(t *testing.T) {
		results := (&TranscriptShapeCheck{}).Run(ctxWithExport(t, "G1\tWBGene1\tn1\nG2\tA.1.2.3\tn2\n"))
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if !strings.Contains(results[1].Details, "has 4 segments") {
			t.Errorf("Details = %q", results[1].Details)
		}
	})

	t.Run("it warns about isoform letters other than a", func(t *testing.T) {
		results := (&TranscriptShapeCheck{}).Run(ctxWithExport(t, "G1\tT13A10.10b.1\tn1\n"))
		if len(results) != 1 || results[0].Passed {
			t.Fatalf("results = %+v, want one warning", results)
		}
		if !strings.Contains(results[0].Details, `isoform letter "b"`) {
			t.Errorf("Details = %q", results[0].Details)
		}
	})

	t.Run("it ignores discarded duplicate rows", func(t *testing.T) {
		results := (&TranscriptShapeCheck{}).Run(ctxWithExport(t, "G1\tT1.1.1\tn1\nG1\tT13A10.10b.1\tx\n"))
		if len(failures(results)) != 0 {
			t.Errorf("results = %+v, want pass", results)
		}
	})
}

func TestIsoformDigitsCheck(t *testing.T) {
	t.Run("it passes when every isoform index has digits", func(t *testing.T) {
		results := (&IsoformDigitsCheck{}).Run(ctxWithExport(t, "G1\tT13A10.10a.1\tn1\n"))
		if len(failures(results)) != 0 {
			t.Errorf("results = %+v, want pass", results)
		}
	})

	t.Run("it reports an isoform index without digits as an error", func(t *testing.T) {
		results := (&IsoformDigitsCheck{}).Run(ctxWithExport(t, "G1\tT1.1.1\tn1\nG4\tT13A10.a.1\tn4\n"))
		if len(results) != 1 || results[0].Passed || results[0].Severity != SeverityError {
			t.Fatalf("results = %+v, want one error", results)
		}
		if !strings.Contains(results[0].Details, "Line 2: gene G4") {
			t.Errorf("Details = %q", results[0].Details)
		}
	})
}

func TestDefaultChecks(t *testing.T) {
	t.Run("it reports a clean export with no errors", func(t *testing.T) {
		runner := NewDiagnosticRunner()
		for _, c := range DefaultChecks() {
			runner.Register(c)
		}
		report := runner.RunAll(ctxWithExport(t, "G1\tT13A10.10a.1\tname1\nG2\tF07C3.7.1\tname2\n"))

		if len(report.Results) != 4 {
			t.Errorf("expected 4 results, got %d", len(report.Results))
		}
		if report.HasErrors() || report.WarningCount() != 0 {
			t.Errorf("report = %+v, want all passing", report)
		}
	})
}
