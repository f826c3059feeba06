package querycache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"sudooom.storefront/internal/metrics"
)

// Fetcher loads the authoritative value of a query.
type Fetcher func(ctx context.Context) (any, error)

// Listener observes refetch results. err is non-nil when the refetch failed;
// value is then the previous value.
type Listener func(key Key, value any, err error)

// Invalidator marks queries stale so they are refetched.
type Invalidator interface {
	Invalidate(ctx context.Context, prefix Key)
}

type entry struct {
	id        uint64
	fetch     Fetcher
	value     any
	err       error
	fetchedAt time.Time
	mu        sync.Mutex // serializes fetches of one key
}

// Cache read-through store of query results with prefix invalidation.
type Cache struct {
	mu        sync.RWMutex
	entries   map[Key]*entry
	listeners map[uint64]Listener
	nextID    uint64
	logger    *slog.Logger
}

// New creates an empty Cache; nil logger means slog.Default().
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries:   make(map[Key]*entry),
		listeners: make(map[uint64]Listener),
		logger:    logger,
	}
}

// Register binds key to fetch, replacing a previous registration.
// The returned func removes it only if it was not replaced since.
func (c *Cache) Register(key Key, fetch Fetcher) (unregister func()) {
	c.mu.Lock()
	c.nextID++
	e := &entry{id: c.nextID, fetch: fetch}
	c.entries[key] = e
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.entries[key]; ok && cur.id == e.id {
			delete(c.entries, key)
		}
	}
}

// Get returns the last successfully fetched value.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fetchedAt.IsZero() {
		return nil, false
	}
	return e.value, true
}

// Fetch runs the fetcher of key and stores the result. A failed fetch keeps
// the previous value and returns the error.
func (c *Cache) Fetch(ctx context.Context, key Key) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, &UnknownKeyError{Key: key}
	}
	return c.fetch(ctx, key, e)
}

func (c *Cache) fetch(ctx context.Context, key Key, e *entry) (any, error) {
	e.mu.Lock()
	value, err := e.fetch(ctx)
	if err == nil {
		e.value = value
		e.fetchedAt = time.Now()
	} else {
		value = e.value
	}
	e.err = err
	e.mu.Unlock()

	c.notify(key, value, err)
	return value, err
}

// Invalidate refetches every registered query under prefix, in key order.
// Errors are logged; the stale values stay in place.
func (c *Cache) Invalidate(ctx context.Context, prefix Key) {
	c.invalidate(ctx, prefix, "local")
}

func (c *Cache) invalidate(ctx context.Context, prefix Key, origin string) {
	metrics.ObserveInvalidation(string(prefix.Family()), origin)

	c.mu.RLock()
	type target struct {
		key Key
		e   *entry
	}
	var targets []target
	for k, e := range c.entries {
		if k.HasPrefix(prefix) {
			targets = append(targets, target{k, e})
		}
	}
	c.mu.RUnlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].key < targets[j].key })

	for _, t := range targets {
		if _, err := c.fetch(ctx, t.key, t.e); err != nil {
			c.logger.Warn("Refetch failed, keeping previous data", "key", t.key, "error", err)
		}
	}
}

// Subscribe adds a listener called after every fetch.
func (c *Cache) Subscribe(fn Listener) (cancel func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(key Key, value any, err error) {
	c.mu.RLock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.RUnlock()

	for _, l := range listeners {
		l(key, value, err)
	}
}

// UnknownKeyError Fetch on a key nobody registered
type UnknownKeyError struct {
	Key Key
}

func (e *UnknownKeyError) Error() string {
	return "query not registered: " + string(e.Key)
}
