// Package cli implements the martclean command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// DefaultOutputPath is the file name the cleaner has always written to when
// no --output is given.
const DefaultOutputPath = "celegans_cleaned_mart_ensembl.102.tsv"

// GlobalOpts holds parsed global flags.
type GlobalOpts struct {
	Quiet   bool
	Verbose bool
	Toon    bool
	Pretty  bool
	JSON    bool
}

// App is the martclean CLI application.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	opts   GlobalOpts
}

// usageError marks errors caused by bad command-line input.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// NewApp creates a new CLI application with the given output writers.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{Stdout: stdout, Stderr: stderr}
}

// Run parses arguments and dispatches to the appropriate subcommand.
// args[0] is the program name. When the first argument after the program
// name is a flag, the clean command is assumed so that `martclean -f x.tsv`
// keeps working.
func (a *App) Run(args []string) int {
	if a.Stdout == nil {
		a.Stdout = os.Stdout
	}
	if a.Stderr == nil {
		a.Stderr = os.Stderr
	}

	subcmd, cmdArgs := a.parseGlobalFlags(args[1:])
	if subcmd == "" && len(cmdArgs) == 0 {
		a.printUsage()
		return ExitOK
	}
	if subcmd == "" {
		subcmd = "clean"
	}

	fc, err := NewFormatConfig(a.opts, a.Stdout)
	if err != nil {
		return a.fail(usagef("%s", err))
	}

	switch subcmd {
	case "clean":
		return a.fail(a.runClean(cmdArgs, fc))
	case "check":
		code, err := a.runCheck(cmdArgs)
		if err != nil {
			return a.fail(err)
		}
		return code
	case "runs":
		return a.fail(a.runRuns(cmdArgs, fc))
	case "help":
		a.printUsage()
		return ExitOK
	default:
		return a.fail(usagef("Unknown command '%s'. Run 'martclean help' for usage.", subcmd))
	}
}

// fail prints err and returns the matching exit code. A nil err is success.
func (a *App) fail(err error) int {
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(a.Stderr, "Error: %s\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

// parseGlobalFlags extracts global flags from anywhere in args. The first
// bare word becomes the subcommand; everything else is returned in order.
func (a *App) parseGlobalFlags(args []string) (subcmd string, remaining []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--quiet", "-q":
			a.opts.Quiet = true
		case "--verbose", "-v":
			a.opts.Verbose = true
		case "--toon":
			a.opts.Toon = true
		case "--pretty":
			a.opts.Pretty = true
		case "--json":
			a.opts.JSON = true
		default:
			if subcmd == "" && len(remaining) == 0 && !strings.HasPrefix(arg, "-") {
				subcmd = arg
				continue
			}
			remaining = append(remaining, arg)
		}
	}
	return subcmd, remaining
}

// flagValue returns the value for a flag at args[i], supporting both
// "--flag value" and "--flag=value". It returns the index of the last
// consumed argument.
func flagValue(args []string, i int, name string) (string, int, error) {
	if eq := strings.IndexByte(args[i], '='); eq >= 0 {
		return args[i][eq+1:], i, nil
	}
	if i+1 >= len(args) {
		return "", i, usagef("%s requires a value", name)
	}
	return args[i+1], i + 1, nil
}

// flagName strips any "=value" suffix from a flag argument.
func flagName(arg string) string {
	if eq := strings.IndexByte(arg, '='); eq >= 0 {
		return arg[:eq]
	}
	return arg
}

func (a *App) printUsage() {
	fmt.Fprint(a.Stdout, `Usage: martclean [command] [options]

Normalizes a BioMart export (gene ID, transcript ID, gene name) into a
de-duplicated table with unversioned, isoform-free transcript IDs.

Commands:
  clean     Clean an export (default when the first argument is a flag)
  check     Diagnose an export without writing anything
  runs      List runs recorded in a cache
  help      Show this help

Clean options:
  -f, --file PATH        BioMart TSV export (required)
  -o, --output PATH      Output file (default `+DefaultOutputPath+`)
  --skip-malformed       Skip malformed lines instead of failing
  --cache PATH           SQLite cache; reuses the result for unchanged input
  --config PATH          YAML defaults (output, cache, skip_malformed)

Check options:
  -f, --file PATH        BioMart TSV export (required)

Runs options:
  --cache PATH           SQLite cache (required)
  -n, --limit N          Number of runs to show (default 10, 0 for all)

Global flags:
  -q, --quiet     Suppress non-essential output
  -v, --verbose   More detail for debugging
  --toon          Force TOON output format
  --pretty        Force human-readable output format
  --json          Force JSON output format
`)
}
