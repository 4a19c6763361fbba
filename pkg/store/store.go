// Package store caches raw SPARQL response bodies in front of an Executor.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
)

var ErrCacheMiss = errors.New("cache miss")

type Entry struct {
	Body     string
	StoredAt time.Time
}

// Cache is a key/value store for response bodies. Get returns ErrCacheMiss
// when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
	Close() error
}

// Key fingerprints everything that influences a response body.
func Key(req sparql.Request) string {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "POST"
	}
	h := sha256.New()
	for _, part := range []string{req.Endpoint, method, req.Accept, req.Query} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CachingExecutor serves repeated requests from a Cache. Only successful
// responses are stored. Cache failures are logged and never fail a request.
type CachingExecutor struct {
	next  sparql.Executor
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachingExecutor wraps next. A ttl of zero keeps entries forever.
func NewCachingExecutor(next sparql.Executor, cache Cache, ttl time.Duration) *CachingExecutor {
	return &CachingExecutor{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *CachingExecutor) Execute(ctx context.Context, req sparql.Request) (string, error) {
	key := Key(req)

	entry, err := c.cache.Get(ctx, key)
	switch {
	case err == nil && c.fresh(entry):
		logger.Debug("[Cache] Hit", "endpoint", req.Endpoint, "key", key[:12])
		return entry.Body, nil
	case err != nil && !errors.Is(err, ErrCacheMiss):
		logger.Warn("[Cache] Lookup failed", "err", err)
	}

	body, err := c.next.Execute(ctx, req)
	if err != nil {
		return "", err
	}

	if err := c.cache.Put(ctx, key, Entry{Body: body, StoredAt: c.now()}); err != nil {
		logger.Warn("[Cache] Store failed", "err", err)
	}
	return body, nil
}

func (c *CachingExecutor) fresh(e Entry) bool {
	return c.ttl <= 0 || c.now().Sub(e.StoredAt) < c.ttl
}

type Opener func(ctx context.Context, dsn string) (Cache, error)

var openers = map[string]Opener{}

// Register makes a backend available to Open under scheme. Backends
// register themselves from init, so callers blank-import the ones they use.
func Register(scheme string, open Opener) {
	openers[scheme] = open
}

// Open returns the cache backend named by dsn:
//
//	memory              in-process map
//	sqlite:<path>       SQLite database file
//	postgres://...      PostgreSQL, schema migrated on open
func Open(ctx context.Context, dsn string) (Cache, error) {
	scheme, _, found := strings.Cut(dsn, ":")
	if !found {
		scheme = dsn
	}
	if scheme == "postgresql" {
		scheme = "postgres"
	}
	open, ok := openers[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown cache backend %q", scheme)
	}
	return open(ctx, dsn)
}
