package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	full := base()
	full.EndpointAddrHTTP = "127.0.0.1:9090"
	full.StorageDriver = DriverSQLite
	full.DatabaseDSN = "file:lib.db"
	full.SecretKey = "secret"
	full.JWTExpire = 2 * time.Hour
	full.CookieExpire = 3 * 24 * time.Hour
	full.AdminSecret = "adm"
	full.FrontendURL = "http://front"
	full.S3RootUser = "user"
	full.S3RootPassword = "password"
	full.S3Bucket = "bucket"
	full.S3Region = "us-west-1"
	full.S3BaseEndpoint = "http://endpoint"
	full.LogBackend = "logrus"

	withShortJWT := func() *Config {
		c := base()
		c.JWTExpire = 30 * time.Minute
		return c
	}

	tests := []struct {
		start       *Config
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-driver", "sqlite", "-d", "file:lib.db", "-s", "secret",
			"-t", "2", "-x", "3", "-admin", "adm", "-f", "http://front",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			"-l", "logrus",
		}, start: base(), expected: full},
		{name: "unset duration flags keep finer values", args: []string{"cmd"},
			start: withShortJWT(), expected: withShortJWT()},
		{name: "foreign flags ignored", args: []string{"cmd", "-test.v", "-c", "cfg.json"},
			start: base(), expected: base()},
		{name: "bad int panics", args: []string{"cmd", "-t", "abc"},
			start: base(), expectPanic: true},
	}

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := tt.start

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(tt.expected, config))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
