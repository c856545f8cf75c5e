package cache

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCache(t *testing.T) (*Cache, *clock) {
	t.Helper()
	clk := newClock()
	c := New(Options{Now: clk.Now})
	t.Cleanup(c.Close)
	return c, clk
}

func TestGetHonorsTTL(t *testing.T) {
	c, clk := newCache(t)

	c.Set("babies", []string{"Mia"})
	c.SetWithTTL("baby-1", "Mia", time.Minute)

	clk.Advance(2 * time.Minute)
	if _, ok := c.Get("baby-1"); ok {
		t.Error("baby-1 still fresh after its 1m ttl")
	}
	if _, ok := c.Get("babies"); !ok {
		t.Error("babies expired before the default ttl")
	}

	clk.Advance(DefaultTTL)
	if _, ok := c.Get("babies"); ok {
		t.Error("babies still fresh after the default ttl")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (expired entries are kept for revalidation)", c.Len())
	}
}

func TestFetchCachesResult(t *testing.T) {
	c, _ := newCache(t)
	var calls int
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	for range 3 {
		v, err := c.Fetch(context.Background(), "k", fetch, FetchOptions{})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if v != 1 {
			t.Errorf("Fetch() = %v, want 1", v)
		}
	}

	v, _ := c.Fetch(context.Background(), "k", fetch, FetchOptions{Force: true})
	if v != 2 {
		t.Errorf("forced Fetch() = %v, want 2", v)
	}
}

func TestFetchSuppressesConcurrentMisses(t *testing.T) {
	c, _ := newCache(t)
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "records", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Fetch(context.Background(), "growth-records-1", fetch, FetchOptions{})
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
	for i, r := range results {
		if r != "records" {
			t.Errorf("results[%d] = %v, want records", i, r)
		}
	}
}

func TestFetchStaleWhileRevalidate(t *testing.T) {
	c, clk := newCache(t)
	c.SetWithTTL("milestones-1", "old", time.Minute)
	clk.Advance(2 * time.Minute)

	refreshed := make(chan string, 1)
	unsubscribe := c.Subscribe("milestones-1", func(key string) { refreshed <- key })
	defer unsubscribe()

	v, err := c.Fetch(context.Background(), "milestones-1", func(ctx context.Context) (any, error) {
		return "new", nil
	}, FetchOptions{StaleWhileRevalidate: true})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if v != "old" {
		t.Errorf("Fetch() = %v, want stale value", v)
	}

	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("background refresh did not complete")
	}
	if v, ok := c.Get("milestones-1"); !ok || v != "new" {
		t.Errorf("Get() after refresh = %v, %v; want new", v, ok)
	}
}

func TestFetchStaleWhileRevalidateConcurrent(t *testing.T) {
	clk := newClock()
	c := New(Options{Now: clk.Now})
	c.SetWithTTL("photos-1-1-20", "old", time.Minute)
	clk.Advance(2 * time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "new", nil
	}

	const callers = 16
	results := make(chan any, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), "photos-1-1-20", fetch,
				FetchOptions{TTL: time.Minute, StaleWhileRevalidate: true})
			if err != nil {
				t.Errorf("Fetch() error = %v", err)
			}
			results <- v
		}()
	}

	// Every caller returns while the refresh is still blocked.
	returned := make(chan struct{})
	go func() {
		wg.Wait()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("callers blocked on the background refresh")
	}
	close(results)
	for v := range results {
		if v != "old" {
			t.Errorf("Fetch() = %v, want stale value", v)
		}
	}

	close(release)
	c.Close()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch calls = %d, want 1", n)
	}
	if v, ok := c.Get("photos-1-1-20"); !ok || v != "new" {
		t.Errorf("Get() after refresh = %v, %v; want new", v, ok)
	}
}

func TestFetchWithoutSWRBlocksOnExpired(t *testing.T) {
	c, clk := newCache(t)
	c.SetWithTTL("k", "old", time.Minute)
	clk.Advance(2 * time.Minute)

	v, _ := c.Fetch(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "new", nil
	}, FetchOptions{})
	if v != "new" {
		t.Errorf("Fetch() = %v, want new", v)
	}
}

func TestFetchErrorInvalidates(t *testing.T) {
	c, _ := newCache(t)
	c.Set("photos-1", "cached")
	boom := errors.New("boom")

	_, err := c.Fetch(context.Background(), "photos-1", func(ctx context.Context) (any, error) {
		return nil, boom
	}, FetchOptions{Force: true})
	if !errors.Is(err, boom) {
		t.Fatalf("Fetch() error = %v, want boom", err)
	}
	if _, ok := c.Get("photos-1"); ok {
		t.Error("photos-1 still cached after failed fetch")
	}
}

func TestFetchAs(t *testing.T) {
	c, _ := newCache(t)
	got, err := FetchAs(context.Background(), c, "n", func(ctx context.Context) (int, error) {
		return 42, nil
	}, FetchOptions{})
	if err != nil || got != 42 {
		t.Errorf("FetchAs() = %d, %v; want 42", got, err)
	}
}

func TestInvalidatePatterns(t *testing.T) {
	c, _ := newCache(t)
	for _, k := range []string{"baby-1", "growth-records-1", "milestones-1", "photos-1", "photos-2", "babies"} {
		c.Set(k, k)
	}

	if n := c.InvalidatePattern("-1"); n != 4 {
		t.Errorf("InvalidatePattern(-1) = %d, want 4", n)
	}
	if _, ok := c.Get("photos-2"); !ok {
		t.Error("photos-2 removed by -1 pattern")
	}

	if n := c.InvalidateRegexp(regexp.MustCompile(`^photos-\d+$`)); n != 1 {
		t.Errorf("InvalidateRegexp() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestSubscribe(t *testing.T) {
	c, _ := newCache(t)
	var keyEvents, allEvents []string

	unsubscribe := c.Subscribe("baby-1", func(key string) { keyEvents = append(keyEvents, key) })
	c.SubscribeAll(func(key string) { allEvents = append(allEvents, key) })

	c.Set("baby-1", "a")
	c.Set("baby-2", "b")
	c.Invalidate("baby-1")
	unsubscribe()
	c.Set("baby-1", "c")
	c.Clear()

	if want := []string{"baby-1", "baby-1"}; !equal(keyEvents, want) {
		t.Errorf("key events = %v, want %v", keyEvents, want)
	}
	if want := []string{"baby-1", "baby-2", "baby-1", "baby-1", ""}; !equal(allEvents, want) {
		t.Errorf("all events = %v, want %v", allEvents, want)
	}
}

func TestCloseWaitsForRefresh(t *testing.T) {
	clk := newClock()
	c := New(Options{Now: clk.Now, DefaultTTL: time.Minute})
	c.Set("k", "old")
	clk.Advance(2 * time.Minute)

	var done atomic.Bool
	c.Fetch(context.Background(), "k", func(ctx context.Context) (any, error) {
		<-ctx.Done()
		done.Store(true)
		return nil, ctx.Err()
	}, FetchOptions{StaleWhileRevalidate: true})

	c.Close()
	if !done.Load() {
		t.Error("Close returned before the background refresh finished")
	}

	// After Close, expired entries are fetched synchronously.
	v, _ := c.Fetch(context.Background(), "k", func(ctx context.Context) (any, error) {
		return "sync", nil
	}, FetchOptions{StaleWhileRevalidate: true})
	if v != "sync" {
		t.Errorf("Fetch() after Close = %v, want sync", v)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
