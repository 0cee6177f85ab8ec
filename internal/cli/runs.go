package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/leeovery/martclean/internal/storage/sqlite"
)

const defaultRunsLimit = 10

// runRuns implements the runs subcommand.
func (a *App) runRuns(args []string, fc FormatConfig) error {
	var cachePath string
	limit := defaultRunsLimit

	for i := 0; i < len(args); i++ {
		var err error
		switch name := flagName(args[i]); name {
		case "--cache":
			cachePath, i, err = flagValue(args, i, name)
		case "-n", "--limit":
			var raw string
			raw, i, err = flagValue(args, i, name)
			if err == nil {
				limit, err = strconv.Atoi(raw)
				if err != nil {
					err = usagef("%s must be an integer, got %q", name, raw)
				}
			}
		default:
			return usagef("unknown flag %q for runs command", args[i])
		}
		if err != nil {
			return err
		}
	}
	if cachePath == "" {
		return usagef("--cache is required")
	}

	if _, err := os.Stat(cachePath); err != nil {
		return fmt.Errorf("cannot open cache %s: %w", cachePath, err)
	}

	cache, err := sqlite.NewCache(cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	runs, err := cache.Runs(limit)
	if err != nil {
		return err
	}

	rows := make([]RunRow, len(runs))
	for i, r := range runs {
		rows[i] = RunRow{
			ID:          r.ID,
			Started:     r.Started,
			Input:       r.InputPath,
			Output:      r.OutputPath,
			UniqueGenes: r.UniqueGenes,
			Rewrites:    r.Rewrites,
			Cached:      r.Cached,
		}
	}
	return fc.Formatter().FormatRuns(a.Stdout, rows)
}
