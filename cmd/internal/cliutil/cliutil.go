// Package cliutil provides shared CLI utilities for the hwcover tools.
package cliutil

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// GlobalFlags holds the flags accepted before or after any subcommand.
type GlobalFlags struct {
	Verbose  int
	Config   string
	HelpFlag bool
}

// ParseArgs parses global flags and extracts the subcommand from args.
// Flags handled: -v/--verbose, -vv, -c/--config, -h/--help.
// Unrecognized flags are passed through to the subcommand.
func ParseArgs(args []string) (flags GlobalFlags, cmd string, cmdArgs []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			flags.HelpFlag = true
		case arg == "-v" || arg == "--verbose":
			if flags.Verbose < 1 {
				flags.Verbose = 1
			}
		case arg == "-vv":
			flags.Verbose = 2
		case arg == "-c" || arg == "--config":
			if i+1 < len(args) {
				i++
				flags.Config = args[i]
			}
		case strings.HasPrefix(arg, "--config="):
			flags.Config = arg[9:]
		case len(arg) > 0 && arg[0] == '-':
			cmdArgs = append(cmdArgs, arg)
		default:
			if cmd == "" {
				cmd = arg
			} else {
				cmdArgs = append(cmdArgs, arg)
			}
		}
	}
	return
}

// NewLogger returns a text logger on stderr for the verbosity level, or
// nil when verbose is 0. Level 2 enables trace output.
func NewLogger(verbose int, trace slog.Level) *slog.Logger {
	if verbose == 0 {
		return nil
	}
	level := slog.LevelDebug
	if verbose >= 2 {
		level = trace
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// GetOutput opens the output file or returns stdout.
func GetOutput(outputFile string) (*os.File, func(), error) {
	if outputFile == "" || outputFile == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
