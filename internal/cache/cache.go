// Package cache is the client-side read cache: TTL entries, stale-while-revalidate
// refreshes, in-flight request suppression and change notifications.
package cache

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 5 * time.Minute

// Fetcher loads the value for a key on a miss.
type Fetcher func(ctx context.Context) (any, error)

// Listener is called with the changed key, or "" after Clear.
type Listener func(key string)

type Options struct {
	DefaultTTL time.Duration
	Now        func() time.Time
}

type FetchOptions struct {
	// TTL overrides the cache default for the stored result.
	TTL time.Duration
	// StaleWhileRevalidate returns an expired value at once and refreshes it in the background.
	StaleWhileRevalidate bool
	// Force skips the cached value.
	Force bool
}

type entry struct {
	value  any
	stored time.Time
	ttl    time.Duration
}

type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	listeners map[string]map[int]Listener
	global    map[int]Listener
	nextID    int
	closed    bool

	group      singleflight.Group
	defaultTTL time.Duration
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		entries:    make(map[string]*entry),
		listeners:  make(map[string]map[int]Listener),
		global:     make(map[int]Listener),
		defaultTTL: opts.DefaultTTL,
		now:        opts.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close stops background refreshes, waits for running ones and drops all subscribers.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.listeners = make(map[string]map[int]Listener)
	c.global = make(map[int]Listener)
	c.mu.Unlock()
}

// Get returns the value for key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key. A ttl of zero uses the cache default.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = &entry{value: value, stored: c.now(), ttl: ttl}
	c.mu.Unlock()
	c.notify(key)
}

// Fetch is a read-through Get. Concurrent misses for the same key share one fetch,
// and a failed fetch removes whatever was cached under key.
func (c *Cache) Fetch(ctx context.Context, key string, fetch Fetcher, opts FetchOptions) (any, error) {
	if !opts.Force {
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()

		if ok && c.fresh(e) {
			return e.value, nil
		}
		if ok && opts.StaleWhileRevalidate && c.refreshInBackground(key, fetch, opts.TTL) {
			return e.value, nil
		}
	}
	return c.load(ctx, key, fetch, opts)
}

// FetchAs is Fetch for a typed fetcher.
func FetchAs[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error), opts FetchOptions) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func (c *Cache) load(ctx context.Context, key string, fetch Fetcher, opts FetchOptions) (any, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		// A flight that finished while this caller was on its way here already stored the value.
		if !opts.Force {
			if v, ok := c.Get(key); ok {
				return v, nil
			}
		}

		v, err := fetch(ctx)
		if err != nil {
			c.Invalidate(key)
			return nil, err
		}
		c.SetWithTTL(key, v, opts.TTL)
		return v, nil
	})
	return v, err
}

func (c *Cache) refreshInBackground(key string, fetch Fetcher, ttl time.Duration) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if _, err := c.load(c.ctx, key, fetch, FetchOptions{TTL: ttl}); err != nil {
			slog.Debug("background refresh failed", "key", key, "error", err)
		}
	}()
	return true
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.notify(key)
}

// InvalidatePattern removes every key containing substr and returns how many were removed.
func (c *Cache) InvalidatePattern(substr string) int {
	return c.invalidateMatching(func(key string) bool {
		return strings.Contains(key, substr)
	})
}

func (c *Cache) InvalidateRegexp(re *regexp.Regexp) int {
	return c.invalidateMatching(re.MatchString)
}

func (c *Cache) invalidateMatching(match func(string) bool) int {
	c.mu.Lock()
	var keys []string
	for key := range c.entries {
		if match(key) {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.Invalidate(key)
	}
	return len(keys)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	c.notify("")
}

// Len counts stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe calls fn whenever key is set or invalidated. The returned func unsubscribes.
func (c *Cache) Subscribe(key string, fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	if c.listeners[key] == nil {
		c.listeners[key] = make(map[int]Listener)
	}
	c.listeners[key][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners[key], id)
		if len(c.listeners[key]) == 0 {
			delete(c.listeners, key)
		}
	}
}

// SubscribeAll calls fn on every change, including Clear.
func (c *Cache) SubscribeAll(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.global[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.global, id)
	}
}

func (c *Cache) notify(key string) {
	c.mu.Lock()
	var fns []Listener
	if key != "" {
		for _, fn := range c.listeners[key] {
			fns = append(fns, fn)
		}
	} else {
		for _, subs := range c.listeners {
			for _, fn := range subs {
				fns = append(fns, fn)
			}
		}
	}
	for _, fn := range c.global {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Entries are replaced, never mutated, so fresh is safe without the lock.
func (c *Cache) fresh(e *entry) bool {
	return c.now().Sub(e.stored) <= e.ttl
}
