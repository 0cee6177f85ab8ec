package cli

import (
	"context"
	"fmt"

	"github.com/leeovery/martclean/internal/config"
	"github.com/leeovery/martclean/internal/mart"
	"github.com/leeovery/martclean/internal/storage"
)

type cleanFlags struct {
	file          string
	output        string
	cache         string
	config        string
	skipMalformed bool
}

// parseCleanArgs parses the flag arguments for the clean command. Values
// left unset may still be filled from --config by applyConfig.
func parseCleanArgs(args []string) (cleanFlags, error) {
	var flags cleanFlags

	for i := 0; i < len(args); i++ {
		var err error
		switch name := flagName(args[i]); name {
		case "-f", "--file":
			flags.file, i, err = flagValue(args, i, name)
		case "-o", "--output":
			flags.output, i, err = flagValue(args, i, name)
		case "--cache":
			flags.cache, i, err = flagValue(args, i, name)
		case "--config":
			flags.config, i, err = flagValue(args, i, name)
		case "--skip-malformed":
			flags.skipMalformed = true
		default:
			return cleanFlags{}, usagef("unknown flag %q for clean command", args[i])
		}
		if err != nil {
			return cleanFlags{}, err
		}
	}

	if flags.file == "" {
		return cleanFlags{}, usagef("--file is required")
	}
	return flags, nil
}

// applyConfig fills unset flags from the YAML file named by --config, then
// falls back to the legacy output file name.
func applyConfig(flags cleanFlags) (cleanFlags, error) {
	if flags.config != "" {
		cfg, err := config.Load(flags.config)
		if err != nil {
			return cleanFlags{}, err
		}
		if flags.output == "" {
			flags.output = cfg.Output
		}
		if flags.cache == "" {
			flags.cache = cfg.Cache
		}
		flags.skipMalformed = flags.skipMalformed || cfg.SkipMalformed
	}
	if flags.output == "" {
		flags.output = DefaultOutputPath
	}
	return flags, nil
}

// runClean cleans the export and reports the summary.
func (a *App) runClean(args []string, fc FormatConfig) error {
	flags, err := parseCleanArgs(args)
	if err != nil {
		return err
	}
	if flags, err = applyConfig(flags); err != nil {
		return err
	}

	policy := mart.PolicyAbort
	if flags.skipMalformed {
		policy = mart.PolicySkip
	}

	cfg := storage.StoreConfig{
		InputPath:  flags.file,
		OutputPath: flags.output,
		CachePath:  flags.cache,
		Policy:     policy,
	}
	if fc.Verbose {
		cfg.Logger = NewVerboseLogger(a.Stderr)
	}

	store, err := storage.NewStore(cfg)
	if err != nil {
		return err
	}

	outcome, err := store.Clean(context.Background())
	if err != nil {
		return err
	}

	for _, w := range outcome.Result.Warnings {
		fmt.Fprintf(a.Stderr, "warning: %s\n", w.Message)
	}

	if fc.Quiet {
		return nil
	}

	return fc.Formatter().FormatSummary(a.Stdout, SummaryData{
		Input:       flags.file,
		Output:      flags.output,
		UniqueGenes: outcome.Result.UniqueGeneCount,
		Rewrites:    outcome.Result.RewriteCount,
		Duplicates:  outcome.Stats.Duplicates,
		Skipped:     outcome.Stats.Skipped,
		Warnings:    len(outcome.Result.Warnings),
		Cached:      outcome.Cached,
		RunID:       outcome.RunID,
	})
}
