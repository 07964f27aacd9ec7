// Package cache is the tenant-scoped in-process cache behind the cached
// provider and claim stores.
package cache

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"idvmgt/internal/platform/config"
	"idvmgt/internal/platform/metrics"
)

const (
	defaultMaxEntries  = 10_000
	defaultBufferItems = 64
)

// Cache holds values of T keyed by tenant-qualified strings. Loads run outside
// any lock and are collapsed per key with singleflight.
type Cache[T any] struct {
	name    string
	ttl     time.Duration
	rc      *ristretto.Cache[string, T]
	sfg     singleflight.Group
	fence   sync.Mutex
	gen     atomic.Uint64
	metrics *metrics.CacheMetrics
}

// New creates a named cache sized by cfg. metrics may be nil.
func New[T any](name string, cfg config.Cache, m *metrics.CacheMetrics) (*Cache[T], error) {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	buffer := cfg.BufferItems
	if buffer <= 0 {
		buffer = defaultBufferItems
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: buffer,
		Cost: func(T) int64 {
			return 1
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s cache: %w", name, err)
	}
	return &Cache[T]{name: name, ttl: cfg.TTL, rc: rc, metrics: m}, nil
}

// Key builds a tenant-scoped key.
func Key(tenantID int, kind, id string) string {
	return strconv.Itoa(tenantID) + "|" + kind + "|" + id
}

func (c *Cache[T]) Name() string {
	return c.name
}

// Get returns the cached value for key.
func (c *Cache[T]) Get(key string) (T, bool) {
	v, ok := c.rc.Get(key)
	if ok {
		c.metrics.Hit(c.name)
	} else {
		c.metrics.Miss(c.name)
	}
	return v, ok
}

// Set stores value. A dropped write only costs a later miss.
func (c *Cache[T]) Set(key string, value T) {
	if c.ttl > 0 {
		c.rc.SetWithTTL(key, value, 1, c.ttl)
	} else {
		c.rc.Set(key, value, 1)
	}
	c.rc.Wait()
}

// Delete removes keys and fences any load that started before the call.
func (c *Cache[T]) Delete(keys ...string) {
	c.fence.Lock()
	defer c.fence.Unlock()
	c.gen.Add(1)
	for _, k := range keys {
		c.rc.Del(k)
		c.sfg.Forget(k)
	}
	c.rc.Wait()
	c.metrics.Invalidated(c.name, len(keys))
}

// Clear empties the cache.
func (c *Cache[T]) Clear() {
	c.fence.Lock()
	defer c.fence.Unlock()
	c.gen.Add(1)
	c.rc.Clear()
	c.rc.Wait()
}

// setIfGen stores value under every key unless an invalidation ran since gen
// was read.
func (c *Cache[T]) setIfGen(gen uint64, value T, keys ...string) {
	c.fence.Lock()
	defer c.fence.Unlock()
	if c.gen.Load() != gen {
		return
	}
	for _, k := range keys {
		c.Set(k, value)
	}
}

// GetOrLoad returns the cached value or calls loader once per key. The loaded
// value is only stored when no invalidation happened while it was loading.
func (c *Cache[T]) GetOrLoad(key string, loader func() (T, error)) (T, bool, error) {
	return c.GetOrLoadAliased(key, loader, nil)
}

// GetOrLoadAliased is GetOrLoad for values reachable under more than one key.
// aliases names the other keys of a loaded value; they are written under the
// same invalidation fence as key.
func (c *Cache[T]) GetOrLoadAliased(key string, loader func() (T, error), aliases func(T) []string) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	gen := c.gen.Load()
	res, err, _ := c.sfg.Do(key, func() (any, error) {
		v, err := loader()
		if err != nil {
			return nil, err
		}
		keys := []string{key}
		if aliases != nil {
			keys = append(keys, aliases(v)...)
		}
		c.setIfGen(gen, v, keys...)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

// Close releases ristretto's goroutines.
func (c *Cache[T]) Close() {
	c.rc.Close()
}
