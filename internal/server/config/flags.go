package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":4000")
//	-driver     storage driver: postgres, mysql, sqlite, memory, s3
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      JWT validity, hours
//	-x int      cookie validity, days
//	-admin      admin registration secret
//	-f string   frontend URL (CORS origin)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log backend: slog or logrus
//
// SMTP settings come only from the environment or the JSON file.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-driver", "-d", "-s", "-t", "-x", "-admin", "-f",
		"-u", "-p", "-b", "-g", "-e", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StorageDriver, "driver", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	jwtExpire := fs.Int("t", int(config.JWTExpire.Hours()), "jwt validity (in hours)")
	cookieExpire := fs.Int("x", int(config.CookieExpire.Hours()/24), "cookie validity (in days)")

	fs.StringVar(&config.AdminSecret, "admin", config.AdminSecret, "admin registration secret")
	fs.StringVar(&config.FrontendURL, "f", config.FrontendURL, "frontend URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Whole-unit flags only override when given, so finer defaults survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.JWTExpire = time.Duration(*jwtExpire) * time.Hour
		case "x":
			config.CookieExpire = daysToDuration(*cookieExpire)
		}
	})
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
