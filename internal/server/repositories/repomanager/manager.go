// Package repomanager opens the board database, applies migrations and hands
// out repositories bound to either the pool or a transaction.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/swapboard/internal/dbx"
	"github.com/dmitrijs2005/swapboard/internal/server/migrations"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/listings"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Manager owns the connection pool for the lifetime of the process.
type Manager struct {
	db      *sqlx.DB
	dialect string
}

// DriverFor maps a DSN to its database/sql driver name and migration dialect.
// postgres:// and postgresql:// URLs use pgx; anything else is a SQLite path.
func DriverFor(dsn string) (driver, dialect string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return "pgx", DialectPostgres
	}
	return "sqlite", DialectSQLite
}

// Open connects to dsn and verifies the connection. SQLite is limited to a
// single open connection; the engine serializes writes anyway and in-memory
// databases are per-connection.
func Open(ctx context.Context, dsn string) (*Manager, error) {
	driver, dialect := DriverFor(dsn)

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &Manager{db: db, dialect: dialect}, nil
}

// NewManager wraps an already opened handle. Used by tests.
func NewManager(db *sqlx.DB, dialect string) *Manager {
	return &Manager{db: db, dialect: dialect}
}

func (m *Manager) Dialect() string {
	return m.dialect
}

// RunMigrations applies pending migrations for the manager's dialect. It is
// safe to call on an up-to-date database.
func (m *Manager) RunMigrations(ctx context.Context) error {
	fsys, err := migrations.Dialect(m.dialect)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	gooseDialect := goose.DialectSQLite3
	if m.dialect == DialectPostgres {
		gooseDialect = goose.DialectPostgres
	}

	p, err := goose.NewProvider(gooseDialect, m.db.DB, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// Listings returns the listing store over the pool.
func (m *Manager) Listings() listings.Repository {
	return listings.NewSQLRepository(m.db)
}

// WithTx runs fn with a listing store bound to a single transaction.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, repo listings.Repository) error) error {
	return dbx.WithTx(ctx, m.db, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, listings.NewSQLRepository(tx))
	})
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Manager) Close() error {
	return m.db.Close()
}
