package pgx

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/store"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	store.Register("postgres", func(ctx context.Context, dsn string) (store.Cache, error) {
		return New(ctx, dsn)
	})
}

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// Cache stores responses in PostgreSQL.
type Cache struct {
	conn  pgxIConn
	close func()
}

// New migrates the schema and opens a pool against databaseURL.
func New(ctx context.Context, databaseURL string) (*Cache, error) {
	if err := Migrate(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Cache{conn: pool, close: pool.Close}, nil
}

// NewWithConnection uses an existing connection whose schema is already
// migrated. Close does not close conn.
func NewWithConnection(conn pgxIConn) *Cache {
	return &Cache{conn: conn, close: func() {}}
}

// Migrate applies the embedded migrations.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	v, _, _ := m.Version()
	logger.Debug("[Cache] Schema migrated", "version", v)
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) (store.Entry, error) {
	var e store.Entry
	err := c.conn.QueryRow(ctx,
		`SELECT body, stored_at FROM sparql_cache WHERE key = $1`, key,
	).Scan(&e.Body, &e.StoredAt)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.Entry{}, store.ErrCacheMiss
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return e, nil
}

// storable reports whether body fits a PostgreSQL TEXT column, which
// rejects NUL bytes and invalid UTF-8.
func storable(body string) bool {
	return utf8.ValidString(body) && !strings.ContainsRune(body, 0)
}

// Put upserts entry. Bodies PostgreSQL cannot hold are not cached.
func (c *Cache) Put(ctx context.Context, key string, entry store.Entry) error {
	if !storable(entry.Body) {
		logger.Debug("[Cache] Skipping body that is not valid text", "key", key)
		return nil
	}
	_, err := c.conn.Exec(ctx,
		`INSERT INTO sparql_cache (key, body, stored_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, stored_at = EXCLUDED.stored_at`,
		key, entry.Body, entry.StoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	c.close()
	return nil
}
