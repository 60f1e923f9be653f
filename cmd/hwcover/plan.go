package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/xfuzz/hwcover"
)

const planUsage = `hwcover plan - Show the step plan for a kind list

Usage:
  hwcover plan [options] KINDS

Unknown kinds are ignored. With no argument the kinds of the config file
are used.

Options:
  -h, --help   Show help

Examples:
  hwcover plan mux,control
  hwcover plan line
`

func (c *cli) cmdPlan(args []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, planUsage) }
	help := fs.Bool("h", false, "show help")
	fs.BoolVar(help, "help", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(os.Stdout, planUsage)
		return exitOK
	}

	kinds := strings.Join(fs.Args(), ",")
	if kinds == "" {
		kinds = c.config.Kinds
	}
	p := hwcover.ParsePlan(kinds)
	if p.Empty() {
		fmt.Println("No known kinds selected, nothing to run.")
		return exitOK
	}

	fmt.Printf("Kinds: %s\n", strings.Join(p.Kinds, ", "))
	for i, s := range p.Steps {
		fmt.Printf("%2d. %-10s %s\n", i+1, s.Kind, s.Name)
	}
	return exitOK
}
