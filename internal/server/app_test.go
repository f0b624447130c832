package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/server/config"
	"github.com/dmitrijs2005/elibrary/internal/server/mailer"
	"github.com/dmitrijs2005/elibrary/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageDriver = config.DriverMemory
	c.SMTPHost = ""
	return c
}

func TestNewRepositoryManager(t *testing.T) {
	ctx := context.Background()

	c := testConfig()
	rm, err := newRepositoryManager(ctx, c)
	require.NoError(t, err)
	assert.IsType(t, &repomanager.MemoryRepositoryManager{}, rm)

	c.StorageDriver = config.DriverSQLite
	c.DatabaseDSN = "file::memory:"
	rm, err = newRepositoryManager(ctx, c)
	require.NoError(t, err)
	assert.IsType(t, &repomanager.SQLRepositoryManager{}, rm)
	require.NoError(t, rm.RunMigrations(ctx))
	require.NoError(t, rm.Close())

	c.StorageDriver = "cassandra"
	_, err = newRepositoryManager(ctx, c)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestNewSender(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := testConfig()
	assert.IsType(t, &mailer.LogSender{}, newSender(c, logger))

	c.SMTPHost = "smtp.example.com"
	assert.IsType(t, &mailer.SMTPSender{}, newSender(c, logger))
}

func TestNewApp_Errors(t *testing.T) {
	c := testConfig()
	c.LogBackend = "zap"
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)

	c = testConfig()
	c.StorageDriver = "nope"
	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "storage init error")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestApp_RunServesAndStops(t *testing.T) {
	c := testConfig()
	c.EndpointAddrHTTP = freeAddr(t)

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	app.logger = logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + c.EndpointAddrHTTP + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
