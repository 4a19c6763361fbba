package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goudatijdmachine/filiatie/pkg/store"

	_ "modernc.org/sqlite"
)

func init() {
	store.Register("sqlite", func(_ context.Context, dsn string) (store.Cache, error) {
		return New(strings.TrimPrefix(dsn, "sqlite:"))
	})
}

// Cache persists responses in a single-file SQLite database.
type Cache struct {
	db *sql.DB
}

// New creates or opens the database at path.
func New(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	c := &Cache{db: db}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	queries := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS sparql_cache (
			key TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			stored_at INTEGER NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := c.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) (store.Entry, error) {
	var (
		body     string
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT body, stored_at FROM sparql_cache WHERE key = ?`, key,
	).Scan(&body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entry{}, store.ErrCacheMiss
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return store.Entry{Body: body, StoredAt: time.UnixMilli(storedAt)}, nil
}

func (c *Cache) Put(ctx context.Context, key string, entry store.Entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO sparql_cache (key, body, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, stored_at = excluded.stored_at`,
		key, entry.Body, entry.StoredAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
