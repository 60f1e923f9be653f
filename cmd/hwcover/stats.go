package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/xfuzz/hwcover/internal/manifest"
)

const statsUsage = `hwcover stats - Summarize the tables of a coverage manifest

Usage:
  hwcover stats [options] MANIFEST

Options:
  --descriptors  List every probe module instead of one row per kind
  -h, --help     Show help

Examples:
  hwcover stats build/generated-src/firrtl-cover.json
  hwcover stats --descriptors firrtl-cover.json
`

func (c *cli) cmdStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, statsUsage) }
	descriptors := fs.Bool("descriptors", false, "list every probe module")
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(os.Stdout, statsUsage)
		return exitOK
	}
	if fs.NArg() != 1 {
		printError("expected exactly one manifest file")
		return exitError
	}

	m, err := readManifest(fs.Arg(0))
	if err != nil {
		printError("%v", err)
		return exitError
	}

	fmt.Printf("Top: %s\n", m.Top)
	if len(m.Signals) > 0 {
		fmt.Printf("Threaded signals: %v\n", m.Signals)
	}

	table := tablewriter.NewWriter(os.Stdout)
	if *descriptors {
		table.SetHeader([]string{"Kind", "Module", "Width", "Base", "Points", "Sites"})
		for _, k := range m.Kinds {
			for _, d := range k.Descriptors {
				table.Append([]string{
					k.Name,
					d.Module,
					strconv.Itoa(d.Width),
					strconv.Itoa(d.Base),
					strconv.Itoa(d.Total),
					strconv.Itoa(len(d.Sites)),
				})
			}
		}
	} else {
		table.SetHeader([]string{"Kind", "Feedback", "Modules", "Sites", "Points"})
		for _, k := range m.Kinds {
			sites := 0
			for _, d := range k.Descriptors {
				sites += len(d.Sites)
			}
			feedback := ""
			if k.Feedback {
				feedback = "yes"
			}
			table.Append([]string{
				k.Name,
				feedback,
				strconv.Itoa(len(k.Descriptors)),
				strconv.Itoa(sites),
				strconv.Itoa(k.Total),
			})
		}
		table.SetFooter([]string{"", "", "", "Total", strconv.Itoa(m.Total())})
	}
	table.Render()
	return exitOK
}

func readManifest(path string) (*manifest.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := manifest.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return m, nil
}
