package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the e-library CLI.
//
// Fields:
//   - ServerURL: base URL of the account API, scheme included.
//   - SessionFile: where the session token is kept between runs; empty
//     disables persistence.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	SessionFile    string
	RequestTimeout time.Duration
}

// userConfigDir is a seam for tests.
var userConfigDir = os.UserConfigDir

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:4000"
	c.SessionFile = defaultSessionFile()
	c.RequestTimeout = 10 * time.Second
}

func defaultSessionFile() string {
	dir, err := userConfigDir()
	if err != nil || dir == "" {
		return ".elibrary-session.json"
	}
	return filepath.Join(dir, "elibrary", "session.json")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
