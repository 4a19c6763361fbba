package memory

import (
	"context"
	"sync"

	"github.com/goudatijdmachine/filiatie/pkg/store"
)

func init() {
	store.Register("memory", func(context.Context, string) (store.Cache, error) {
		return New(), nil
	})
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]store.Entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]store.Entry)}
}

func (c *Cache) Get(_ context.Context, key string) (store.Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return store.Entry{}, store.ErrCacheMiss
	}
	return e, nil
}

func (c *Cache) Put(_ context.Context, key string, entry store.Entry) error {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Close() error {
	return nil
}
