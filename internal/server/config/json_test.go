package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":   "www.example:9000",
		"storage_driver":       "mysql",
		"database_dsn":         "user:pw@/lib?parseTime=true",
		"secret_key":           "my_secret_key",
		"jwt_expire":           "24h",
		"cookie_expire_days":   2,
		"cookie_secure":        true,
		"admin_secret":         "admin",
		"frontend_url":         "https://library.example",
		"smtp_host":            "smtp.example",
		"smtp_port":            465,
		"s3_bucket":            "bucket",
		"log_backend":          "logrus",
		"min_password_entropy": 50,
		"otp_lifetime":         int64(5 * time.Minute),
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, DriverMySQL, cfg.StorageDriver)
		assert.Equal(t, "user:pw@/lib?parseTime=true", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpire)
		assert.Equal(t, 48*time.Hour, cfg.CookieExpire)
		assert.True(t, cfg.CookieSecure)
		assert.Equal(t, "admin", cfg.AdminSecret)
		assert.Equal(t, "https://library.example", cfg.FrontendURL)
		assert.Equal(t, "smtp.example", cfg.SMTPHost)
		assert.Equal(t, 465, cfg.SMTPPort)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "logrus", cfg.LogBackend)
		assert.InDelta(t, 50, cfg.MinPasswordEntropy, 0.0001)
		assert.Equal(t, 5*time.Minute, cfg.OTPLifetime)
	})

	t.Run("absent fields keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "k2"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "k2", cfg.SecretKey)
		assert.Equal(t, ":4000", cfg.EndpointAddrHTTP)
		assert.Equal(t, 7*24*time.Hour, cfg.CookieExpire)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SecretKey: "key", JWTExpire: time.Hour}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.JWTExpire)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
