// Package tsv reads and writes cleaned three-column gene tables.
// Writes are atomic: temp file + fsync + rename.
package tsv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leeovery/martclean/internal/mart"
)

// maxLineSize matches the longest input line the canonicalizer accepts.
const maxLineSize = 1024 * 1024

// ErrOutputWrite is wrapped by every WriteRecords failure.
var ErrOutputWrite = errors.New("output write failed")

// FormatRecord renders one row without the trailing newline.
func FormatRecord(rec mart.CanonicalRecord) string {
	return rec.GeneID + "\t" + rec.TranscriptID + "\t" + rec.GeneName
}

// WriteRecords writes records to path, one row per line, using the atomic
// write pattern: write to a temp file in the same directory, fsync, then
// rename. A failure leaves any existing file at path untouched.
func WriteRecords(path string, records []mart.CanonicalRecord) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmpFile, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: create temp file for %s: %v", ErrOutputWrite, path, err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on any error
	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	writer := bufio.NewWriter(tmpFile)
	for _, rec := range records {
		if _, err := writer.WriteString(FormatRecord(rec) + "\n"); err != nil {
			return fmt.Errorf("%w: write gene %s to %s: %v", ErrOutputWrite, rec.GeneID, path, err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrOutputWrite, path, err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("%w: fsync %s: %v", ErrOutputWrite, path, err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp file for %s: %v", ErrOutputWrite, path, err)
	}

	// CreateTemp uses 0600; match a normally created output file.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrOutputWrite, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename temp file to %s: %v", ErrOutputWrite, path, err)
	}

	success = true
	return nil
}

// ReadRecords reads a cleaned table from path.
func ReadRecords(path string) ([]mart.CanonicalRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return ParseRecords(data)
}

// ParseRecords parses a cleaned table from raw bytes. Empty lines are
// skipped; every other line must have exactly three fields.
func ParseRecords(data []byte) ([]mart.CanonicalRecord, error) {
	var records []mart.CanonicalRecord

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", lineNum, len(fields))
		}

		records = append(records, mart.CanonicalRecord{
			GeneID:       fields[0],
			TranscriptID: fields[1],
			GeneName:     fields[2],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table data: %w", err)
	}

	return records, nil
}
