package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xfuzz/hwcover"
	"github.com/xfuzz/hwcover/cmd/internal/cliutil"
	"github.com/xfuzz/hwcover/ir"
)

const instrumentUsage = `hwcover instrument - Instrument a circuit with coverage probes

Usage:
  hwcover instrument [options] CIRCUIT.yaml

Either --kinds selects coverage kinds to run as passes, or --annotations
gives an explicit cover request table. The instrumented circuit is written
as YAML to -o (stdout by default); generated files go to --out-dir.

Options:
  --kinds LIST        Comma-separated kinds: mux,control,toggle,fsm,line,ready_valid
  --annotations FILE  Cover request table (YAML)
  -o FILE             Write the instrumented circuit to FILE
  --out-dir DIR       Directory for generated files (default $NOOP_HOME/build/generated-src)
  -s, --source DIR    Index source files under DIR for line coverage (repeatable)
  --max-width N       Widest binding accepted for encoded-state coverage
  --no-artifacts      Render generated files without writing them
  --strict            Use strict diagnostics
  --permissive        Use permissive diagnostics
  --level N           Set strictness level (0-6, lower is stricter)
  -h, --help          Show help

Examples:
  hwcover instrument --kinds mux,control -o out.yaml circuit.yaml
  hwcover instrument --kinds line -s src/main/scala circuit.yaml
  hwcover instrument --annotations cover.yaml --out-dir gen circuit.yaml
`

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func (c *cli) cmdInstrument(args []string) int {
	fs := flag.NewFlagSet("instrument", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, instrumentUsage) }

	kinds := fs.String("kinds", c.config.Kinds, "comma-separated coverage kinds")
	annotations := fs.String("annotations", "", "cover request table")
	output := fs.String("o", "", "instrumented circuit output file")
	outDir := fs.String("out-dir", c.config.OutputDir, "generated file directory")
	var sources stringList
	fs.Var(&sources, "s", "source directory")
	fs.Var(&sources, "source", "source directory")
	maxWidth := fs.Int("max-width", c.config.MaxEncodedWidth, "widest encoded-state binding")
	noArtifacts := fs.Bool("no-artifacts", false, "do not write generated files")
	strict := fs.Bool("strict", false, "use strict diagnostics")
	permissive := fs.Bool("permissive", false, "use permissive diagnostics")
	level := fs.Int("level", -1, "set strictness level (0-6)")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(os.Stdout, instrumentUsage)
		return exitOK
	}
	if fs.NArg() != 1 {
		printError("expected exactly one circuit file")
		fmt.Fprint(os.Stderr, instrumentUsage)
		return exitError
	}
	if *kinds == "" && *annotations == "" {
		printError("one of --kinds or --annotations is required")
		return exitError
	}

	circuit, err := readCircuit(fs.Arg(0))
	if err != nil {
		printError("%v", err)
		return exitError
	}

	dc, err := c.config.diagnosticConfig()
	if err != nil {
		printError("%v", err)
		return exitError
	}
	switch {
	case *strict:
		dc = ir.StrictConfig()
	case *permissive:
		dc = ir.PermissiveConfig()
	case *level >= 0:
		dc = ir.ConfigForLevel(ir.StrictnessLevel(*level))
	}

	opts := []hwcover.Option{
		hwcover.WithDiagnosticConfig(dc),
		hwcover.WithMaxEncodedWidth(*maxWidth),
	}
	if logger := cliutil.NewLogger(c.Verbose, hwcover.LevelTrace); logger != nil {
		opts = append(opts, hwcover.WithLogger(logger))
	}
	if *outDir != "" {
		opts = append(opts, hwcover.WithOutputDir(*outDir))
	}
	if *noArtifacts {
		opts = append(opts, hwcover.WithoutArtifacts())
	}
	idx, err := c.config.sourceIndex(sources)
	if err != nil {
		printError("%v", err)
		return exitError
	}
	if idx != nil {
		opts = append(opts, hwcover.WithSourceIndex(idx))
	}

	var (
		res    *hwcover.Result
		runErr error
	)
	if *annotations != "" {
		table, err := readCoverTable(*annotations)
		if err != nil {
			printError("%v", err)
			return exitError
		}
		res, runErr = hwcover.Instrument(context.Background(), circuit, table, opts...)
	} else {
		res, runErr = hwcover.Run(context.Background(), circuit, *kinds, opts...)
	}
	if res != nil {
		printDiagnostics(res.Diagnostics)
	}
	if runErr != nil {
		printError("instrumentation failed: %v", runErr)
		return exitCode(runErr)
	}

	out, done, err := cliutil.GetOutput(*output)
	if err != nil {
		printError("%v", err)
		return exitError
	}
	defer done()
	if err := ir.EncodeCircuit(out, res.Circuit); err != nil {
		printError("writing circuit: %v", err)
		return exitError
	}

	sites := 0
	for _, d := range res.Descriptors {
		sites += len(d.Sites)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Instrumented %d sites with %d probe modules (%d points)\n",
		sites, len(res.Descriptors), res.Points())
	if res.OutputDir != "" {
		_, _ = fmt.Fprintf(os.Stderr, "Wrote %d files to %s\n", len(res.Artifacts), res.OutputDir)
	}
	return exitOK
}

func readCircuit(path string) (*ir.Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ir.DecodeCircuit(f)
	if err != nil {
		return nil, fmt.Errorf("reading circuit %s: %w", path, err)
	}
	return c, nil
}

func readCoverTable(path string) (*ir.CoverTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ir.DecodeCoverTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading annotations %s: %w", path, err)
	}
	return t, nil
}
