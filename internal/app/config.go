package app

import (
	"stubrunner/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Quiet discards all log output
	Quiet bool

	// Custom configuration path (optional)
	ConfigPath string

	// Overrides set from the command line; nil or zero keeps the file value
	UseLocal *bool
	MinPort  int
	MaxPort  int

	// Loaded configuration. When set before NewApplication, ConfigPath is not
	// read.
	StubRunnerConfig *config.StubRunnerConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, quiet bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Quiet:      quiet,
		ConfigPath: configPath,
	}
}

// applyOverrides copies command line overrides into sc.
func (c *Config) applyOverrides(sc *config.StubRunnerConfig) {
	if c.UseLocal != nil {
		sc.Repository.UseLocal = *c.UseLocal
	}
	if c.MinPort != 0 {
		sc.PortRange.Min = c.MinPort
	}
	if c.MaxPort != 0 {
		sc.PortRange.Max = c.MaxPort
	}
	if c.Debug {
		sc.Logging.Level = "debug"
	}
}
