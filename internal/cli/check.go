package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/leeovery/martclean/internal/doctor"
)

// RunCheck executes every diagnostic check against the export at path,
// writes the report to stdout and returns the exit code. It is read-only and
// always prints human-readable text regardless of the format flags.
func RunCheck(stdout io.Writer, path string) int {
	runner := doctor.NewDiagnosticRunner()
	for _, c := range doctor.DefaultChecks() {
		runner.Register(c)
	}

	report := runner.RunAll(doctor.WithInput(context.Background(), path))
	doctor.FormatReport(stdout, report)

	return doctor.ExitCode(report)
}

// runCheck implements the check subcommand.
func (a *App) runCheck(args []string) (int, error) {
	var file string
	for i := 0; i < len(args); i++ {
		var err error
		switch name := flagName(args[i]); name {
		case "-f", "--file":
			file, i, err = flagValue(args, i, name)
		default:
			return ExitUsage, usagef("unknown flag %q for check command", args[i])
		}
		if err != nil {
			return ExitUsage, err
		}
	}
	if file == "" {
		return ExitUsage, usagef("--file is required")
	}

	if _, err := os.Stat(file); err != nil {
		return ExitError, fmt.Errorf("cannot open %s: %w", file, err)
	}

	return RunCheck(a.Stdout, file), nil
}
