package prompt

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a read-through cache in front of a Store. Entries never expire;
// Update and Reset invalidate them. Concurrent misses for one name share a
// single store load, and a load that overlaps an invalidation is returned
// but not cached.
type Cache struct {
	store   Store
	loads   singleflight.Group
	mu      sync.RWMutex
	entries map[string]Template
	gen     uint64
}

var _ Store = (*Cache)(nil)

// NewCache wraps store.
func NewCache(store Store) *Cache {
	return &Cache{store: store, entries: make(map[string]Template)}
}

// Get returns the cached template, loading it from the store on a miss.
// Failed lookups are not cached.
func (c *Cache) Get(ctx context.Context, name string) (Template, error) {
	c.mu.RLock()
	t, ok := c.entries[name]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return t.clone(), nil
	}

	v, err, _ := c.loads.Do(name+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		t, err := c.store.Get(ctx, name)
		if err != nil {
			return Template{}, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries[name] = t
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return Template{}, err
	}
	return v.(Template).clone(), nil
}

// Update writes through to the store and drops the cached entry.
func (c *Cache) Update(ctx context.Context, name, text string) (Template, error) {
	t, err := c.store.Update(ctx, name, text)
	c.Invalidate(name)
	return t, err
}

// List is not cached.
func (c *Cache) List(ctx context.Context) ([]Template, error) {
	return c.store.List(ctx)
}

// Reset writes through to the store and invalidates the affected entries.
func (c *Cache) Reset(ctx context.Context, name string) error {
	err := c.store.Reset(ctx, name)
	c.Invalidate(name)
	return err
}

// Invalidate drops name from the cache, or every entry when name is empty.
func (c *Cache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if name == "" {
		clear(c.entries)
		return
	}
	delete(c.entries, name)
}

// Render loads name and substitutes vars.
func (c *Cache) Render(ctx context.Context, name string, vars map[string]string) (string, error) {
	t, err := c.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return t.Render(vars)
}
