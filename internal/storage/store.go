// Package storage provides a Store that composes input reading, the SQLite
// run cache and the atomic TSV writer, with file locking so two cleaners
// never write the same output at once.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/leeovery/martclean/internal/mart"
	"github.com/leeovery/martclean/internal/storage/sqlite"
	"github.com/leeovery/martclean/internal/storage/tsv"
)

const defaultLockTimeout = 5 * time.Second

// ErrMissingInput is returned when the input file cannot be read.
var ErrMissingInput = errors.New("input file cannot be opened")

// Logger is an optional interface for verbose/debug logging.
type Logger interface {
	Log(msg string)
}

// StoreConfig configures a Store.
type StoreConfig struct {
	InputPath  string
	OutputPath string
	// CachePath enables the SQLite run cache when non-empty.
	CachePath   string
	Policy      mart.Policy
	LockTimeout time.Duration
	Logger      Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Outcome describes a completed clean.
type Outcome struct {
	Result mart.Result
	Stats  mart.IngestStats
	// Cached is true when the result was served from the run cache.
	Cached bool
	// RunID is set when the run was recorded in the cache.
	RunID string
}

// Store cleans one input file into one output file.
type Store struct {
	cfg      StoreConfig
	lockPath string
}

// NewStore validates cfg and returns a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("input path is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("output path is required")
	}

	info, err := os.Stat(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, cfg.InputPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrMissingInput, cfg.InputPath)
	}

	if cfg.Policy == "" {
		cfg.Policy = mart.PolicyAbort
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaultLockTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		cfg:      cfg,
		lockPath: cfg.OutputPath + ".lock",
	}, nil
}

// logVerbose writes a message through the logger if one is set.
func (s *Store) logVerbose(msg string) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Log(msg)
	}
}

// Clean executes the full flow:
// acquire exclusive lock -> read input -> check cache -> clean -> atomic write -> update cache -> release lock.
func (s *Store) Clean(ctx context.Context) (Outcome, error) {
	if err := checkOutputDir(s.cfg.OutputPath); err != nil {
		return Outcome{}, err
	}

	fl := flock.New(s.lockPath)

	s.logVerbose("lock: acquiring exclusive lock on " + s.lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, 10*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return Outcome{}, fmt.Errorf("%w: open lock file %s: %v", tsv.ErrOutputWrite, s.lockPath, err)
	}
	if err != nil || !locked {
		return Outcome{}, fmt.Errorf("could not acquire lock on %s - another cleaner may be writing %s", s.lockPath, s.cfg.OutputPath)
	}
	s.logVerbose("lock: exclusive lock acquired")
	// The lock file is never removed so every cleaner locks the same inode.
	defer func() {
		fl.Unlock()
		s.logVerbose("lock: exclusive lock released")
	}()

	started := s.cfg.Now()

	content, err := os.ReadFile(s.cfg.InputPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", ErrMissingInput, s.cfg.InputPath, err)
	}
	s.logVerbose(fmt.Sprintf("read: %d bytes from %s", len(content), s.cfg.InputPath))

	var cache *sqlite.Cache
	if s.cfg.CachePath != "" {
		cache, err = sqlite.NewCacheWithRecovery(s.cfg.CachePath)
		if err != nil {
			log.Printf("warning: run cache unavailable: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	outcome, err := s.clean(cache, content)
	if err != nil {
		return Outcome{}, err
	}

	s.logVerbose("write: atomic write to " + s.cfg.OutputPath)
	if err := tsv.WriteRecords(s.cfg.OutputPath, outcome.Result.Records); err != nil {
		return Outcome{}, err
	}
	s.logVerbose(fmt.Sprintf("write: wrote %d rows", len(outcome.Result.Records)))

	if err := verifyOutput(s.cfg.OutputPath, len(outcome.Result.Records)); err != nil {
		return Outcome{}, err
	}
	s.logVerbose("write: verified " + s.cfg.OutputPath)

	if cache == nil {
		return outcome, nil
	}

	// Cache failures after a successful write never fail the run.
	if !outcome.Cached {
		s.logVerbose("cache: rebuilding SQLite cache with new hash")
		if err := cache.Rebuild(outcome.Result, outcome.Stats, content, s.cfg.Policy); err != nil {
			log.Printf("warning: failed to update run cache: %v", err)
			return outcome, nil
		}
	}

	run := sqlite.Run{
		ID:          uuid.NewString(),
		Started:     started,
		InputPath:   s.cfg.InputPath,
		OutputPath:  s.cfg.OutputPath,
		UniqueGenes: outcome.Result.UniqueGeneCount,
		Rewrites:    outcome.Result.RewriteCount,
		Cached:      outcome.Cached,
	}
	if err := cache.RecordRun(run); err != nil {
		log.Printf("warning: failed to record run: %v", err)
		return outcome, nil
	}
	outcome.RunID = run.ID
	s.logVerbose("cache: recorded run " + run.ID)

	return outcome, nil
}

// clean serves the result from cache when it is fresh and otherwise runs the
// canonicalizer over content.
func (s *Store) clean(cache *sqlite.Cache, content []byte) (Outcome, error) {
	if cache != nil {
		s.logVerbose("freshness: checking cache hash")
		fresh, err := cache.IsFresh(content, s.cfg.Policy)
		if err != nil {
			log.Printf("warning: failed to check run cache: %v", err)
		}
		if fresh {
			result, stats, err := cache.Load()
			if err == nil {
				s.logVerbose("cache: fresh, reusing cached table")
				return Outcome{Result: result, Stats: stats, Cached: true}, nil
			}
			log.Printf("warning: failed to load run cache: %v", err)
		} else {
			s.logVerbose("cache: stale")
		}
	}

	result, stats, err := mart.Clean(bytes.NewReader(content), mart.Options{
		Policy: s.cfg.Policy,
		Logger: s.cfg.Logger,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", s.cfg.InputPath, err)
	}
	return Outcome{Result: result, Stats: stats}, nil
}

// checkOutputDir fails with ErrOutputWrite when the directory that will hold
// the output and its lock file does not exist or is not a directory.
func checkOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: output directory for %s: %v", tsv.ErrOutputWrite, outputPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output directory for %s: %s is not a directory", tsv.ErrOutputWrite, outputPath, dir)
	}
	return nil
}

// verifyOutput reads the written table back and checks it holds want rows,
// so the cache is never rebuilt from a write that did not land intact.
func verifyOutput(path string, want int) error {
	written, err := tsv.ReadRecords(path)
	if err != nil {
		return fmt.Errorf("%w: verify %s: %v", tsv.ErrOutputWrite, path, err)
	}
	if len(written) != want {
		return fmt.Errorf("%w: verify %s: read back %d rows, wrote %d", tsv.ErrOutputWrite, path, len(written), want)
	}
	return nil
}
