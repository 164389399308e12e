package field

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// Key identifies one sampled surface. Two renders with equal keys produce
// identical fields and contours.
type Key struct {
	Width   int
	Height  int
	Variant scoring.Variant
	Weights scoring.WeightSet
}

func (k Key) String() string {
	return fmt.Sprintf("%dx%d/%s/%g/%g", k.Width, k.Height, k.Variant, k.Weights.P, k.Weights.R)
}

// Cache memoizes expensive per-key computations. Concurrent misses for the
// same key share one computation. Entries are evicted oldest-first once the
// cache holds max entries; max <= 0 disables storage but keeps de-duplication.
type Cache[V any] struct {
	max int

	mu      sync.Mutex
	entries map[Key]V
	order   []Key
	gen     uint64

	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates a cache bounded to max entries.
func NewCache[V any](max int) *Cache[V] {
	return &Cache[V]{max: max, entries: make(map[Key]V)}
}

// Get returns the cached value for key, computing it with fn on a miss.
func (c *Cache[V]) Get(key Key, fn func() (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return v, nil
	}
	gen := c.gen
	c.mu.Unlock()
	c.misses.Add(1)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero V
		return zero, err
	}
	val := v.(V)
	c.store(key, val, gen)
	return val, nil
}

// sharedRetries bounds how often GetContext recomputes after a shared
// computation ended with another caller's context error.
const sharedRetries = 3

// GetContext is Get for computations bound to a caller context. A shared
// computation started by another caller may fail with that caller's
// cancellation or deadline; while ctx is still live the lookup is retried
// under ctx instead of returning the foreign error.
func (c *Cache[V]) GetContext(ctx context.Context, key Key, fn func(context.Context) (V, error)) (V, error) {
	var (
		v   V
		err error
	)
	for attempt := 0; attempt <= sharedRetries; attempt++ {
		v, err = c.Get(key, func() (V, error) { return fn(ctx) })
		if err == nil || ctx.Err() != nil || !isContextErr(err) {
			return v, err
		}
	}
	return v, err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Cache[V]) store(key Key, v V, gen uint64) {
	if c.max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// An invalidation raced with the computation; drop the stale value.
	if gen != c.gen {
		return
	}
	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = v
	c.order = append(c.order, key)
}

// Invalidate drops every entry.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]V)
	c.order = nil
	c.gen++
}

// Len is the number of stored entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Hits and Misses count lookups since creation.
func (c *Cache[V]) Hits() uint64   { return c.hits.Load() }
func (c *Cache[V]) Misses() uint64 { return c.misses.Load() }
