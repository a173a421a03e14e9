package config

import (
	"flag"
	"fmt"
	"io"
)

// Parse parses args (without the program name) into a Config. Usage and
// parse errors are written to output.
//
// Flags come first; the first positional argument is the target and the
// rest are passed to it unchanged, so flags meant for the target are never
// consumed here.
func Parse(args []string, output io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("forklaunch", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.Usage = func() {
		fmt.Fprintf(output, `forklaunch - fork a child, exec a target in it, wait and report its exit status

Usage:
  forklaunch [flags] [target [args...]]

  target defaults to %s. A target without a slash is looked up on PATH.

Observability:
`, DefaultTarget)
		printFlagCategory(fs, output, []string{"log-format", "log-level", "v", "metrics-textfile", "no-color"})

		fmt.Fprintf(output, "\nDiagnostics:\n")
		printFlagCategory(fs, output, []string{"preflight"})

		fmt.Fprintf(output, `
Exit status:
  0  the child was launched and waited for (its own code is only reported)
  1  fork, exec or wait failed
  2  invalid flags or configuration

Examples:
  # Launch the default target
  forklaunch

  # Launch a program with arguments
  forklaunch /bin/sh -c 'exit 7'

  # Record the outcome for the node_exporter textfile collector
  forklaunch -metrics-textfile /var/lib/node_exporter/forklaunch.prom ./job

`)
	}

	// Observability
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn", "error"`)
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging (forces debug level)")
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write Prometheus metrics for this launch to this file")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable styled output")

	// Diagnostics
	fs.BoolVar(&cfg.Preflight, "preflight", cfg.Preflight, "Print advisory checks before launching")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Positional arguments: target and its arguments
	rest := fs.Args()
	if len(rest) >= 1 {
		cfg.Target = rest[0]
		cfg.Args = append([]string(nil), rest[1:]...)
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
					fmt.Fprintf(w, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(w)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
		return ""
	}
	return "string"
}
