package config

import "github.com/leapstack-labs/sqlerm/pkg/database"

// Default configuration values.
const (
	DefaultOutput = OutputTable
	EnvPrefix     = "SQLERM_"
)

// Config file names searched for, in order.
var ConfigFileNames = []string{"sqlerm.yaml", "sqlerm.yml"}

// defaults returns the lowest-precedence layer, keyed like the YAML file.
func defaults() map[string]any {
	s := database.DefaultSettings()
	return map[string]any{
		"data_source":  s.DataSource,
		"version":      s.Version,
		"utf16":        s.UTF16Encoding,
		"busy_timeout": s.BusyTimeout.String(),
		"schema":       "",
		"verbose":      false,
		"output":       DefaultOutput,
	}
}

// ApplyDefaults fills zero values in a config built without Load.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	s := database.DefaultSettings()
	if c.DataSource == "" {
		c.DataSource = s.DataSource
	}
	if c.Version == 0 {
		c.Version = s.Version
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
}
