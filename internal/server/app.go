// Package server wires the account server together: logging, the account
// store, the OTP mailer, the account service and the HTTP API. It also
// handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/elibrary/internal/dbx"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/server/config"
	"github.com/dmitrijs2005/elibrary/internal/server/httpapi"
	"github.com/dmitrijs2005/elibrary/internal/server/mailer"
	"github.com/dmitrijs2005/elibrary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/elibrary/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	repomanager    repomanager.RepositoryManager
	accountService *services.AccountService
}

// NewApp builds the application from c. The account store is opened and
// migrated here so that startup fails fast on a bad DSN.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(logging.Backend(c.LogBackend), os.Stdout)
	if err != nil {
		return nil, err
	}

	rm, err := newRepositoryManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	as := services.NewAccountService(rm, newSender(c, logger), logger, c)

	return &App{config: c, logger: logger, repomanager: rm, accountService: as}, nil
}

// newRepositoryManager opens the account store selected by StorageDriver.
func newRepositoryManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageDriver {
	case config.DriverPostgres:
		return repomanager.NewSQLRepositoryManager(ctx, dbx.Postgres, c.DatabaseDSN)
	case config.DriverMySQL:
		return repomanager.NewSQLRepositoryManager(ctx, dbx.MySQL, c.DatabaseDSN)
	case config.DriverSQLite:
		return repomanager.NewSQLRepositoryManager(ctx, dbx.SQLite, c.DatabaseDSN)
	case config.DriverMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.DriverS3:
		return repomanager.NewS3RepositoryManager(ctx, repomanager.S3Options{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

// newSender returns an SMTP sender, or a log-only sender when no SMTP host
// is configured.
func newSender(c *config.Config, logger logging.Logger) mailer.Sender {
	if c.SMTPHost == "" {
		return mailer.NewLogSender(logger)
	}
	return mailer.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom, c.OTPLifetime)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.logger, app.accountService, app.config)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the account store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
