// Package sqlite provides a SQLite cache of canonicalized tables keyed by the
// hash of the raw input they were built from. The cache is expendable: it can
// always be rebuilt by cleaning the input again.
package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leeovery/martclean/internal/mart"
)

const timeFormat = "2006-01-02T15:04:05Z"

const schema = `
CREATE TABLE IF NOT EXISTS genes (
  position INTEGER PRIMARY KEY,
  gene_id TEXT NOT NULL UNIQUE,
  transcript_id TEXT NOT NULL,
  gene_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS warnings (
  line INTEGER NOT NULL,
  gene_id TEXT,
  message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT
);

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  started TEXT NOT NULL,
  input_path TEXT NOT NULL,
  output_path TEXT NOT NULL,
  unique_genes INTEGER NOT NULL,
  rewrites INTEGER NOT NULL,
  cached INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
`

// Run is one recorded invocation of the cleaner.
type Run struct {
	ID          string
	Started     time.Time
	InputPath   string
	OutputPath  string
	UniqueGenes int
	Rewrites    int
	Cached      bool
}

// Cache wraps the SQLite database.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// NewCache opens or creates a cache at dbPath and initializes the schema.
func NewCache(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db, dbPath: dbPath}, nil
}

// NewCacheWithRecovery opens a cache, deleting and recreating it if it is corrupted.
func NewCacheWithRecovery(dbPath string) (*Cache, error) {
	cache, err := NewCache(dbPath)
	if err != nil {
		os.Remove(dbPath)
		cache, err = NewCache(dbPath)
		if err != nil {
			return nil, fmt.Errorf("recovery failed: %w", err)
		}
	}
	return cache, nil
}

// DB returns the underlying *sql.DB for direct queries.
func (c *Cache) DB() *sql.DB {
	return c.db
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func computeHash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}

func (c *Cache) metadata(key string) (string, bool, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query metadata %s: %w", key, err)
	}
	return value, true, nil
}

// IsFresh reports whether the cached table was built from exactly this input
// content with the same malformed-input policy.
func (c *Cache) IsFresh(content []byte, policy mart.Policy) (bool, error) {
	storedHash, ok, err := c.metadata("input_hash")
	if err != nil || !ok {
		return false, err
	}
	storedPolicy, ok, err := c.metadata("policy")
	if err != nil || !ok {
		return false, err
	}
	return storedHash == computeHash(content) && storedPolicy == string(policy), nil
}

// Load returns the cached result in its original row order, plus the ingest
// counters recorded when it was built.
func (c *Cache) Load() (mart.Result, mart.IngestStats, error) {
	var result mart.Result
	var stats mart.IngestStats

	rows, err := c.db.Query("SELECT gene_id, transcript_id, gene_name FROM genes ORDER BY position")
	if err != nil {
		return mart.Result{}, stats, fmt.Errorf("failed to query genes: %w", err)
	}
	defer rows.Close()

	result.Records = []mart.CanonicalRecord{}
	for rows.Next() {
		var rec mart.CanonicalRecord
		if err := rows.Scan(&rec.GeneID, &rec.TranscriptID, &rec.GeneName); err != nil {
			return mart.Result{}, stats, fmt.Errorf("failed to scan gene row: %w", err)
		}
		result.Records = append(result.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return mart.Result{}, stats, err
	}

	wRows, err := c.db.Query("SELECT line, COALESCE(gene_id, ''), message FROM warnings ORDER BY rowid")
	if err != nil {
		return mart.Result{}, stats, fmt.Errorf("failed to query warnings: %w", err)
	}
	defer wRows.Close()
	for wRows.Next() {
		var w mart.Warning
		if err := wRows.Scan(&w.Line, &w.GeneID, &w.Message); err != nil {
			return mart.Result{}, stats, fmt.Errorf("failed to scan warning row: %w", err)
		}
		result.Warnings = append(result.Warnings, w)
	}
	if err := wRows.Err(); err != nil {
		return mart.Result{}, stats, err
	}

	counters := map[string]*int{
		"rewrite_count": &result.RewriteCount,
		"lines":         &stats.Lines,
		"blank":         &stats.Blank,
		"duplicates":    &stats.Duplicates,
		"skipped":       &stats.Skipped,
	}
	for key, dst := range counters {
		value, _, err := c.metadata(key)
		if err != nil {
			return mart.Result{}, stats, err
		}
		*dst, _ = strconv.Atoi(value)
	}
	result.UniqueGeneCount = len(result.Records)

	return result, stats, nil
}

// Rebuild replaces the cached table with result and stores the content hash,
// policy and ingest counters. The entire operation runs in a single transaction.
func (c *Cache) Rebuild(result mart.Result, stats mart.IngestStats, content []byte, policy mart.Policy) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM genes"); err != nil {
		return fmt.Errorf("failed to clear genes: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM warnings"); err != nil {
		return fmt.Errorf("failed to clear warnings: %w", err)
	}

	geneStmt, err := tx.Prepare("INSERT INTO genes (position, gene_id, transcript_id, gene_name) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare gene insert: %w", err)
	}
	defer geneStmt.Close()

	for i, rec := range result.Records {
		if _, err := geneStmt.Exec(i, rec.GeneID, rec.TranscriptID, rec.GeneName); err != nil {
			return fmt.Errorf("failed to insert gene %s: %w", rec.GeneID, err)
		}
	}

	warnStmt, err := tx.Prepare("INSERT INTO warnings (line, gene_id, message) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare warning insert: %w", err)
	}
	defer warnStmt.Close()

	for _, w := range result.Warnings {
		var geneID *string
		if w.GeneID != "" {
			geneID = &w.GeneID
		}
		if _, err := warnStmt.Exec(w.Line, geneID, w.Message); err != nil {
			return fmt.Errorf("failed to insert warning for line %d: %w", w.Line, err)
		}
	}

	meta := map[string]string{
		"input_hash":    computeHash(content),
		"policy":        string(policy),
		"rewrite_count": strconv.Itoa(result.RewriteCount),
		"lines":         strconv.Itoa(stats.Lines),
		"blank":         strconv.Itoa(stats.Blank),
		"duplicates":    strconv.Itoa(stats.Duplicates),
		"skipped":       strconv.Itoa(stats.Skipped),
	}
	for key, value := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rebuild: %w", err)
	}

	return nil
}

// RecordRun appends run to the run history.
func (c *Cache) RecordRun(run Run) error {
	cached := 0
	if run.Cached {
		cached = 1
	}
	_, err := c.db.Exec(
		"INSERT INTO runs (id, started, input_path, output_path, unique_genes, rewrites, cached) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID,
		run.Started.UTC().Format(timeFormat),
		run.InputPath,
		run.OutputPath,
		run.UniqueGenes,
		run.Rewrites,
		cached,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns up to limit recorded runs, newest first. A limit of zero or
// less returns every run.
func (c *Cache) Runs(limit int) ([]Run, error) {
	query := "SELECT id, started, input_path, output_path, unique_genes, rewrites, cached FROM runs ORDER BY started DESC, rowid DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var cached int
		if err := rows.Scan(&r.ID, &started, &r.InputPath, &r.OutputPath, &r.UniqueGenes, &r.Rewrites, &cached); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Started, err = time.Parse(timeFormat, started)
		if err != nil {
			return nil, fmt.Errorf("invalid started timestamp %q: %w", started, err)
		}
		r.Cached = cached == 1
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
