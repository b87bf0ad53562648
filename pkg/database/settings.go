package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default connection settings.
const (
	DefaultDataSource  = "database.sqlite"
	DefaultVersion     = 3
	DefaultBusyTimeout = 5 * time.Second
)

// Settings describes the database file to open.
type Settings struct {
	DataSource    string        // File path, or ":memory:"
	Version       int           // SQLite major version, informational
	UTF16Encoding bool          // Create new databases with UTF-16 text encoding
	BusyTimeout   time.Duration // How long a locked database is retried; 0 disables
}

// DefaultSettings returns settings for ./database.sqlite.
func DefaultSettings() Settings {
	return Settings{
		DataSource:  DefaultDataSource,
		Version:     DefaultVersion,
		BusyTimeout: DefaultBusyTimeout,
	}
}

// String renders the settings as a connection string:
// "Data Source=<path>;Version=<n>;UseUTF16Encoding=<True|False>;".
func (s Settings) String() string {
	utf16 := "False"
	if s.UTF16Encoding {
		utf16 = "True"
	}
	return fmt.Sprintf("Data Source=%s;Version=%d;UseUTF16Encoding=%s;", s.DataSource, s.Version, utf16)
}

// DSN renders the data source name passed to the sqlite driver, with the
// encoding and busy timeout applied as connection pragmas.
func (s Settings) DSN() string {
	q := url.Values{}
	if s.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.BusyTimeout.Milliseconds()))
	}
	if s.UTF16Encoding {
		q.Add("_pragma", "encoding('UTF-16')")
	}
	if len(q) == 0 {
		return s.DataSource
	}

	sep := "?"
	if strings.Contains(s.DataSource, "?") {
		sep = "&"
	}
	return s.DataSource + sep + q.Encode()
}
