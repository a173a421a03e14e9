// Package config provides configuration management for forklaunch.
package config

// DefaultTarget is the program launched when none is given.
const DefaultTarget = "./main_elf"

// Config holds all configuration options for a launch.
type Config struct {
	// Target
	Target string   `json:"target"`
	Args   []string `json:"args"` // argv after argv[0]

	// Observability
	LogFormat       string `json:"log_format"` // json, text
	LogLevel        string `json:"log_level"`  // debug, info, warn, error
	Verbose         bool   `json:"verbose"`
	MetricsTextfile string `json:"metrics_textfile"` // empty = disabled
	NoColor         bool   `json:"no_color"`

	// Diagnostic modes
	Preflight bool `json:"preflight"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Target: DefaultTarget,

		LogFormat: "json",
		LogLevel:  "info",
	}
}

// Argv returns the argument vector for the target. argv[0] is the target
// path itself, as execvp callers conventionally pass it.
func (c *Config) Argv() []string {
	argv := make([]string, 0, 1+len(c.Args))
	argv = append(argv, c.Target)
	return append(argv, c.Args...)
}
