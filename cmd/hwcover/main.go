// Command hwcover instruments circuits with coverage probes and inspects
// the generated coverage tables.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/xfuzz/hwcover"
	"github.com/xfuzz/hwcover/cmd/internal/cliutil"
	"github.com/xfuzz/hwcover/ir"
)

// Exit codes.
const (
	exitOK        = 0 // success
	exitError     = 1 // user error or processing failure
	exitThreshold = 2 // a diagnostic reached the fail-at severity
)

const usage = `hwcover - hardware coverage instrumentation tool

Usage:
  hwcover <command> [options] [arguments]

Commands:
  instrument  Instrument a circuit and generate coverage files
  plan        Show the step plan for a kind list
  stats       Summarize the tables of a coverage manifest
  cover       Accumulate coverage bitmaps against a manifest
  version     Show version

Common options:
  -c, --config FILE  Read settings from a YAML config file
  -v, --verbose      Enable debug logging
  -vv                Enable trace logging (implies -v)
  -h, --help         Show help

Examples:
  hwcover instrument --kinds mux,control -o out.yaml circuit.yaml
  hwcover instrument --annotations cover.yaml circuit.yaml
  hwcover plan toggle,fsm
  hwcover stats build/generated-src/firrtl-cover.json
  hwcover cover --uncovered firrtl-cover.json run0.bin run1.bin
`

type cli struct {
	cliutil.GlobalFlags
	config fileConfig
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, cmd, cmdArgs := cliutil.ParseArgs(args)
	c := &cli{GlobalFlags: flags}

	if c.HelpFlag && cmd == "" {
		_, _ = fmt.Fprint(os.Stdout, usage)
		return exitOK
	}
	if cmd == "" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return exitError
	}

	cfg, err := loadFileConfig(c.Config)
	if err != nil {
		printError("%v", err)
		return exitError
	}
	c.config = cfg

	switch cmd {
	case "instrument":
		return c.cmdInstrument(cmdArgs)
	case "plan":
		return c.cmdPlan(cmdArgs)
	case "stats":
		return c.cmdStats(cmdArgs)
	case "cover":
		return c.cmdCover(cmdArgs)
	case "version":
		printVersion()
		return exitOK
	case "help":
		_, _ = fmt.Fprint(os.Stdout, usage)
		return exitOK
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		_, _ = fmt.Fprint(os.Stderr, usage)
		return exitError
	}
}

// exitCode maps a run error to an exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, hwcover.ErrDiagnosticThreshold):
		return exitThreshold
	default:
		return exitError
	}
}

func printDiagnostics(diags []ir.Diagnostic) {
	for _, d := range diags {
		_, _ = fmt.Fprintf(os.Stderr, "%s (%s)\n", d, d.Code)
	}
}

func printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	fmt.Printf("hwcover %s\n", version)
}

func printError(format string, args ...any) {
	cliutil.PrintError(format, args...)
}
