package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/xfuzz/hwcover/coverage"
)

const coverUsage = `hwcover cover - Accumulate coverage bitmaps against a manifest

Usage:
  hwcover cover [options] MANIFEST BITMAP...

Each bitmap file holds one byte per point of a table, non-zero when the
point was reached during a run. Bitmaps apply to the feedback table unless
--kind selects another one.

Options:
  --kind NAME    Table the bitmaps belong to
  --uncovered    List the points never reached
  -h, --help     Show help

Examples:
  hwcover cover firrtl-cover.json run0.bin run1.bin
  hwcover cover --kind multibit --uncovered firrtl-cover.json run0.bin
`

func (c *cli) cmdCover(args []string) int {
	fs := flag.NewFlagSet("cover", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, coverUsage) }
	kind := fs.String("kind", "", "table the bitmaps belong to")
	uncovered := fs.Bool("uncovered", false, "list points never reached")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(os.Stdout, coverUsage)
		return exitOK
	}
	if fs.NArg() < 2 {
		printError("expected a manifest and at least one bitmap")
		fmt.Fprint(os.Stderr, coverUsage)
		return exitError
	}

	set, err := coverage.LoadFile(fs.Arg(0))
	if err != nil {
		printError("%v", err)
		return exitError
	}
	if *kind != "" {
		if err := set.SetFeedback(*kind); err != nil {
			printError("%v", err)
			return exitError
		}
	}
	m, ok := set.Feedback()
	if !ok {
		printError("manifest has no coverage tables")
		return exitError
	}

	for _, path := range fs.Args()[1:] {
		bitmap, err := os.ReadFile(path)
		if err != nil {
			printError("%v", err)
			return exitError
		}
		if err := m.Accumulate(bitmap); err != nil {
			printError("%s: %v", path, err)
			return exitError
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Kind", "Runs", "Covered", "Points", "Percent"})
	table.Append([]string{
		m.Name(),
		strconv.Itoa(m.Runs()),
		strconv.Itoa(m.Covered()),
		strconv.Itoa(m.Len()),
		fmt.Sprintf("%.3f%%", m.Percent()),
	})
	table.Render()

	if err := m.Display(os.Stdout); err != nil {
		printError("%v", err)
		return exitError
	}
	if *uncovered {
		for _, name := range m.Uncovered() {
			fmt.Printf("  %s\n", name)
		}
	}
	return exitOK
}
