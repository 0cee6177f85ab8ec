package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/leeovery/martclean/internal/mart"
	"github.com/leeovery/martclean/internal/storage/sqlite"
	"github.com/leeovery/martclean/internal/storage/tsv"
)

type bufferLogger struct {
	msgs []string
}

func (l *bufferLogger) Log(msg string) {
	l.msgs = append(l.msgs, msg)
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "mart_export.tsv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func TestNewStore(t *testing.T) {
	t.Run("it returns ErrMissingInput for a nonexistent input", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewStore(StoreConfig{
			InputPath:  filepath.Join(dir, "nope.tsv"),
			OutputPath: filepath.Join(dir, "out.tsv"),
		})
		if !errors.Is(err, ErrMissingInput) {
			t.Fatalf("expected ErrMissingInput, got %v", err)
		}
		if !strings.Contains(err.Error(), "nope.tsv") {
			t.Errorf("error %q should name the input path", err)
		}
	})

	t.Run("it rejects a directory as input", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewStore(StoreConfig{InputPath: dir, OutputPath: filepath.Join(dir, "out.tsv")})
		if !errors.Is(err, ErrMissingInput) {
			t.Fatalf("expected ErrMissingInput, got %v", err)
		}
	})

	t.Run("it requires an output path", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir, "")
		if _, err := NewStore(StoreConfig{InputPath: input}); err == nil {
			t.Fatal("expected error for empty output path")
		}
	})
}

func TestStoreClean(t *testing.T) {
	input := "G1\tT13A10.10a.1\tname1\nG2\tF07C3.7.1\tname2\nG1\tT13A10.99b.2\tnameX\nG3\tF07C3.7\tname3\n"

	t.Run("it writes the cleaned table and returns counts", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "cleaned.tsv")
		store, err := NewStore(StoreConfig{InputPath: writeInput(t, dir, input), OutputPath: output})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		outcome, err := store.Clean(context.Background())
		if err != nil {
			t.Fatalf("Clean() returned error: %v", err)
		}

		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		want := "G1\tT13A10.10\tname1\nG2\tF07C3.7\tname2\nG3\tF07C3.7\tname3\n"
		if string(data) != want {
			t.Errorf("output = %q, want %q", string(data), want)
		}
		if outcome.Result.RewriteCount != 1 || outcome.Result.UniqueGeneCount != 3 {
			t.Errorf("RewriteCount = %d, UniqueGeneCount = %d, want 1 and 3", outcome.Result.RewriteCount, outcome.Result.UniqueGeneCount)
		}
		if outcome.Stats.Duplicates != 1 {
			t.Errorf("Duplicates = %d, want 1", outcome.Stats.Duplicates)
		}
		if outcome.Cached || outcome.RunID != "" {
			t.Errorf("expected uncached run without ID, got %+v", outcome)
		}
		if _, err := os.Stat(output + ".lock"); err != nil {
			t.Errorf("expected lock file to be kept after release, stat err = %v", err)
		}
	})

	t.Run("it leaves an existing output untouched when the input is malformed", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "cleaned.tsv")
		if err := os.WriteFile(output, []byte("previous\tgood\toutput\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		store, err := NewStore(StoreConfig{InputPath: writeInput(t, dir, "G1\tT1.1.1\tn1\nbroken\n"), OutputPath: output})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		_, err = store.Clean(context.Background())
		if !errors.Is(err, mart.ErrMalformedRecord) {
			t.Fatalf("expected ErrMalformedRecord, got %v", err)
		}

		data, _ := os.ReadFile(output)
		if string(data) != "previous\tgood\toutput\n" {
			t.Errorf("output was modified: %q", string(data))
		}
	})

	t.Run("it skips malformed lines under PolicySkip", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "cleaned.tsv")
		store, err := NewStore(StoreConfig{
			InputPath:  writeInput(t, dir, "G1\tT1.1.1\tn1\nbroken\n"),
			OutputPath: output,
			Policy:     mart.PolicySkip,
		})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		outcome, err := store.Clean(context.Background())
		if err != nil {
			t.Fatalf("Clean() returned error: %v", err)
		}
		if outcome.Stats.Skipped != 1 || len(outcome.Result.Warnings) != 1 {
			t.Errorf("Skipped = %d, Warnings = %+v, want 1 and one warning", outcome.Stats.Skipped, outcome.Result.Warnings)
		}
	})

	t.Run("it reuses a fresh cache and records every run", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "cleaned.tsv")
		cachePath := filepath.Join(dir, "cache.db")
		logger := &bufferLogger{}
		cfg := StoreConfig{
			InputPath:  writeInput(t, dir, input),
			OutputPath: output,
			CachePath:  cachePath,
			Logger:     logger,
			Now:        func() time.Time { return time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC) },
		}

		store, err := NewStore(cfg)
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}
		first, err := store.Clean(context.Background())
		if err != nil {
			t.Fatalf("first Clean() returned error: %v", err)
		}
		if first.Cached {
			t.Error("expected first run to be uncached")
		}

		if err := os.Remove(output); err != nil {
			t.Fatalf("remove output: %v", err)
		}

		second, err := store.Clean(context.Background())
		if err != nil {
			t.Fatalf("second Clean() returned error: %v", err)
		}
		if !second.Cached {
			t.Error("expected second run to be served from cache")
		}
		if second.Result.RewriteCount != 1 || second.Result.UniqueGeneCount != 3 || second.Stats.Duplicates != 1 {
			t.Errorf("cached outcome = %+v, want same counts as first run", second)
		}
		if first.RunID == "" || second.RunID == "" || first.RunID == second.RunID {
			t.Errorf("expected two distinct run IDs, got %q and %q", first.RunID, second.RunID)
		}

		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("expected output to be rewritten from cache: %v", err)
		}
		if !strings.HasPrefix(string(data), "G1\tT13A10.10\tname1\n") {
			t.Errorf("output = %q", string(data))
		}

		cache, err := sqlite.NewCache(cachePath)
		if err != nil {
			t.Fatalf("open cache: %v", err)
		}
		defer cache.Close()
		runs, err := cache.Runs(0)
		if err != nil {
			t.Fatalf("Runs() returned error: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 recorded runs, got %d", len(runs))
		}

		joined := strings.Join(logger.msgs, "\n")
		for _, want := range []string{"lock: exclusive lock acquired", "cache: fresh, reusing cached table", "write: wrote 3 rows", "write: verified " + output} {
			if !strings.Contains(joined, want) {
				t.Errorf("verbose log missing %q in:\n%s", want, joined)
			}
		}
	})

	t.Run("it fails when the lock is held by another process", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "cleaned.tsv")
		store, err := NewStore(StoreConfig{
			InputPath:   writeInput(t, dir, input),
			OutputPath:  output,
			LockTimeout: 50 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		holder := flock.New(output + ".lock")
		if err := holder.Lock(); err != nil {
			t.Fatalf("failed to take lock: %v", err)
		}
		defer holder.Unlock()

		_, err = store.Clean(context.Background())
		if err == nil || !strings.Contains(err.Error(), "could not acquire lock") {
			t.Fatalf("expected lock error, got %v", err)
		}
		if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
			t.Errorf("expected no output to be written, stat err = %v", statErr)
		}
	})

	t.Run("it refuses a second clean while the kept lock file is held", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "cleaned.tsv")
		store, err := NewStore(StoreConfig{
			InputPath:   writeInput(t, dir, input),
			OutputPath:  output,
			LockTimeout: 50 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		if _, err := store.Clean(context.Background()); err != nil {
			t.Fatalf("first Clean() returned error: %v", err)
		}

		// The waiter locks the same file the first clean released.
		waiter := flock.New(output + ".lock")
		if err := waiter.Lock(); err != nil {
			t.Fatalf("waiter failed to take lock: %v", err)
		}
		defer waiter.Unlock()

		_, err = store.Clean(context.Background())
		if err == nil || !strings.Contains(err.Error(), "could not acquire lock") {
			t.Fatalf("expected second Clean() to be refused while waiter holds the lock, got %v", err)
		}
	})

	t.Run("it returns ErrOutputWrite naming the path when the output directory is missing", func(t *testing.T) {
		dir := t.TempDir()
		output := filepath.Join(dir, "missing", "cleaned.tsv")
		store, err := NewStore(StoreConfig{InputPath: writeInput(t, dir, input), OutputPath: output})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		_, err = store.Clean(context.Background())
		if !errors.Is(err, tsv.ErrOutputWrite) {
			t.Fatalf("expected ErrOutputWrite, got %v", err)
		}
		if !strings.Contains(err.Error(), output) {
			t.Errorf("error %q should name the output path", err)
		}
		if strings.Contains(err.Error(), "could not acquire lock") {
			t.Errorf("error %q should not report lock contention", err)
		}
	})

	t.Run("it returns ErrOutputWrite when the output directory is a file", func(t *testing.T) {
		dir := t.TempDir()
		notDir := filepath.Join(dir, "plain")
		if err := os.WriteFile(notDir, []byte("x"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		store, err := NewStore(StoreConfig{InputPath: writeInput(t, dir, input), OutputPath: filepath.Join(notDir, "cleaned.tsv")})
		if err != nil {
			t.Fatalf("NewStore() returned error: %v", err)
		}

		if _, err := store.Clean(context.Background()); !errors.Is(err, tsv.ErrOutputWrite) {
			t.Fatalf("expected ErrOutputWrite, got %v", err)
		}
	})
}

func TestVerifyOutput(t *testing.T) {
	t.Run("it accepts a table with the expected row count", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cleaned.tsv")
		if err := os.WriteFile(path, []byte("G1\tT1.1\tn1\nG2\tT2.1\tn2\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := verifyOutput(path, 2); err != nil {
			t.Errorf("verifyOutput() returned error: %v", err)
		}
	})

	t.Run("it rejects a row count mismatch", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cleaned.tsv")
		if err := os.WriteFile(path, []byte("G1\tT1.1\tn1\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		err := verifyOutput(path, 2)
		if !errors.Is(err, tsv.ErrOutputWrite) || !strings.Contains(err.Error(), "read back 1 rows, wrote 2") {
			t.Errorf("expected row count mismatch, got %v", err)
		}
	})

	t.Run("it rejects a table that does not parse", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cleaned.tsv")
		if err := os.WriteFile(path, []byte("G1\tT1.1\n"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := verifyOutput(path, 1); !errors.Is(err, tsv.ErrOutputWrite) {
			t.Errorf("expected ErrOutputWrite, got %v", err)
		}
	})
}
