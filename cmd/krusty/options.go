package main

import (
	"flag"
	"fmt"
	"os"
)

// Options holds krusty's top-level flags: a flag.FlagSet built fresh
// per invocation, an Options struct, and a Parse func — not cobra.
type Options struct {
	Verbose     bool
	ConfigPath  string
	Version     bool
	MetricsAddr string
	Highlight   bool

	// Exec is set when invoked as `krusty exec <command>`: the
	// remaining arguments joined back into one command line.
	Exec     bool
	ExecLine string
}

// PreprocessArgs extracts the `exec` subcommand token before flag
// parsing (flag.Parse stops at the first non-flag argument, so a leading
// subcommand must be pulled out first).
func PreprocessArgs(args []string) (sub string, rest []string) {
	if len(args) > 0 && args[0] == "exec" {
		return "exec", args[1:]
	}
	return "", args
}

// Parse builds an Options from os.Args[1:]-style arguments.
func Parse(args []string) (*Options, error) {
	sub, rest := PreprocessArgs(args)

	fs := flag.NewFlagSet("krusty", flag.ContinueOnError)
	opts := &Options{}
	fs.BoolVar(&opts.Verbose, "verbose", false, "enable verbose logging")
	fs.StringVar(&opts.ConfigPath, "config", os.Getenv("KRUSTY_CONFIG"), "path to a YAML configuration file")
	fs.BoolVar(&opts.Version, "version", false, "print version information and exit")
	fs.StringVar(&opts.MetricsAddr, "metrics-listen", "", "address to serve /metrics on (overrides config)")
	fs.BoolVar(&opts.Highlight, "syntax-highlight", true, "colorize the line editor's input")

	if sub == "exec" {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return nil, fmt.Errorf("krusty: exec: a command is required")
		}
		opts.Exec = true
		opts.ExecLine = joinArgs(fs.Args())
		return opts, nil
	}

	if err := fs.Parse(rest); err != nil {
		return nil, err
	}
	return opts, nil
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

// PrintUsage prints the top-level usage block.
func PrintUsage() {
	fmt.Println(`Usage:
  krusty [--verbose] [--config PATH]   start the interactive shell
  krusty exec <command>                run one command line and exit

Flags:
  --verbose              enable verbose logging
  --config PATH           path to a YAML configuration file (env: KRUSTY_CONFIG)
  --version               print version information and exit
  --metrics-listen ADDR    address to serve /metrics on (overrides config)
  --syntax-highlight       colorize the line editor's input (default true)`)
}
