package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/elibrary/internal/flagx"
	"github.com/dmitrijs2005/elibrary/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON configuration file. Duration
// fields use timex.Duration so both "15m" and integer nanoseconds are
// accepted. Pointer fields distinguish "absent" from the zero value.
type JsonConfig struct {
	EndpointAddrHTTP   string          `json:"endpoint_addr_http"`
	StorageDriver      string          `json:"storage_driver"`
	DatabaseDSN        string          `json:"database_dsn"`
	SecretKey          string          `json:"secret_key"`
	JWTExpire          *timex.Duration `json:"jwt_expire"`
	CookieExpireDays   *int            `json:"cookie_expire_days"`
	CookieSecure       *bool           `json:"cookie_secure"`
	AdminSecret        string          `json:"admin_secret"`
	FrontendURL        string          `json:"frontend_url"`
	SMTPHost           string          `json:"smtp_host"`
	SMTPPort           int             `json:"smtp_port"`
	SMTPUser           string          `json:"smtp_user"`
	SMTPPassword       string          `json:"smtp_password"`
	SMTPFrom           string          `json:"smtp_from"`
	S3RootUser         string          `json:"s3_root_user"`
	S3RootPassword     string          `json:"s3_root_password"`
	S3Bucket           string          `json:"s3_bucket"`
	S3Region           string          `json:"s3_region"`
	S3BaseEndpoint     string          `json:"s3_base_endpoint"`
	LogBackend         string          `json:"log_backend"`
	MinPasswordEntropy *float64        `json:"min_password_entropy"`
	OTPLifetime        *timex.Duration `json:"otp_lifetime"`
}

// parseJson loads the file named by -c/-config into config. Fields missing
// from the file keep their current value. An unreadable file or invalid
// JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.JWTExpire != nil {
		config.JWTExpire = c.JWTExpire.Duration
	}
	if c.CookieExpireDays != nil {
		config.CookieExpire = daysToDuration(*c.CookieExpireDays)
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	setString(&config.AdminSecret, c.AdminSecret)
	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogBackend, c.LogBackend)
	if c.MinPasswordEntropy != nil {
		config.MinPasswordEntropy = *c.MinPasswordEntropy
	}
	if c.OTPLifetime != nil {
		config.OTPLifetime = c.OTPLifetime.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
