// Package config loads sqlerm CLI configuration from defaults, a YAML file,
// SQLERM_ environment variables and command-line flags.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/leapstack-labs/sqlerm/pkg/database"
)

// Output formats accepted by the output setting.
const (
	OutputTable    = "table"
	OutputJSON     = "json"
	OutputCSV      = "csv"
	OutputMarkdown = "markdown"
)

// Config holds all CLI configuration options.
type Config struct {
	DataSource  string        `koanf:"data_source"`
	Version     int           `koanf:"version"`
	UTF16       bool          `koanf:"utf16"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
	Schema      string        `koanf:"schema"` // YAML table definitions
	Verbose     bool          `koanf:"verbose"`
	Output      string        `koanf:"output"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// Settings returns the connection settings described by the config.
func (c *Config) Settings() database.Settings {
	return database.Settings{
		DataSource:    c.DataSource,
		Version:       c.Version,
		UTF16Encoding: c.UTF16,
		BusyTimeout:   c.BusyTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DataSource == "" {
		return fmt.Errorf("data_source is required")
	}
	if c.Version <= 0 {
		return fmt.Errorf("version must be positive, got %d", c.Version)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout must not be negative, got %s", c.BusyTimeout)
	}
	formats := []string{OutputTable, OutputJSON, OutputCSV, OutputMarkdown}
	if !slices.Contains(formats, c.Output) {
		return fmt.Errorf("unknown output format %q (expected one of %v)", c.Output, formats)
	}
	return nil
}
