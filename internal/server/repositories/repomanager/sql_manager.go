package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/elibrary/internal/dbx"
	"github.com/dmitrijs2005/elibrary/internal/server/migrations"
	"github.com/dmitrijs2005/elibrary/internal/server/repositories/accounts"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves Postgres, MySQL and SQLite through one
// database/sql handle.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewSQLRepositoryManager opens dsn with the driver for dialect and checks
// the connection. MySQL DSNs need parseTime=true.
func NewSQLRepositoryManager(ctx context.Context, dialect dbx.Dialect, dsn string) (*SQLRepositoryManager, error) {
	db, err := sqlOpen(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == dbx.SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return NewSQLRepositoryManagerFromDB(db, dialect), nil
}

// NewSQLRepositoryManagerFromDB wraps an already opened handle.
func NewSQLRepositoryManagerFromDB(db *sql.DB, dialect dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, dialect: dialect}
}

func (m *SQLRepositoryManager) Accounts() accounts.Repository {
	return accounts.NewSQLRepository(m.db, m.dialect)
}

func (m *SQLRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, accounts.NewSQLRepository(tx, m.dialect))
	})
}

// RunMigrations sets up goose with the embedded migrations for the dialect
// and runs them against the database.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(string(m.dialect)); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, string(m.dialect))
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
