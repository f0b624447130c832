package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/flagx"
	"github.com/dmitrijs2005/elibrary/internal/timex"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. A dotenv file named
// by -env/-env-file is loaded first; variables already present in the
// process environment win over the file.
//
// Recognised variables: PORT, STORAGE_DRIVER, DATABASE_DSN, JWT_SECRET_KEY,
// JWT_EXPIRE (alias JWT_EXPIRES), COOKIE_EXPIRE (days), COOKIE_SECURE,
// ADMIN_SECRET, FRONTEND_URL, SMTP_HOST, SMTP_PORT, SMTP_MAIL, SMTP_PASSWORD, SMTP_FROM,
// S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
// LOG_BACKEND, MIN_PASSWORD_ENTROPY, OTP_LIFETIME.
//
// Durations take Go syntax ("2h", "15m") or whole days ("7d").
// Malformed numeric or duration values cause a panic, like malformed JSON.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv("PORT"); ok {
		config.EndpointAddrHTTP = ":" + v
	}

	envString("STORAGE_DRIVER", &config.StorageDriver)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("JWT_SECRET_KEY", &config.SecretKey)
	envDuration("JWT_EXPIRES", &config.JWTExpire)
	envDuration("JWT_EXPIRE", &config.JWTExpire)

	if v, ok := os.LookupEnv("COOKIE_EXPIRE"); ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.CookieExpire = time.Duration(days) * 24 * time.Hour
	}

	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.CookieSecure = b
	}

	envString("ADMIN_SECRET", &config.AdminSecret)
	envString("FRONTEND_URL", &config.FrontendURL)
	envString("SMTP_HOST", &config.SMTPHost)

	if v, ok := os.LookupEnv("SMTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.SMTPPort = port
	}

	envString("SMTP_MAIL", &config.SMTPUser)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("SMTP_FROM", &config.SMTPFrom)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("LOG_BACKEND", &config.LogBackend)

	if v, ok := os.LookupEnv("MIN_PASSWORD_ENTROPY"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.MinPasswordEntropy = f
	}

	envDuration("OTP_LIFETIME", &config.OTPLifetime)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := timex.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
