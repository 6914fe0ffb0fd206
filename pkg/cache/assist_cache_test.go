package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/logger"

	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(maxEntries int) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(MemoryConfig{MaxEntries: maxEntries})
	store.now = clock.Now
	return store, clock
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(0)

	if err := store.Set(ctx, "k", []byte("v"), 300*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.Advance(299 * time.Second)
	if v, ok, _ := store.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit before expiry, got %q %v", v, ok)
	}

	clock.Advance(time.Second)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss at expiry")
	}
	if store.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len=%d", store.Len())
	}
}

func TestMemoryStoreUnboundedKeepsEntries(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(0)

	for i := 0; i < 500; i++ {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}
	if store.Len() != 500 {
		t.Errorf("expected 500 entries, got %d", store.Len())
	}
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(2)

	_ = store.Set(ctx, "a", []byte("1"), time.Minute)
	_ = store.Set(ctx, "b", []byte("2"), time.Minute)
	_, _, _ = store.Get(ctx, "a")
	_ = store.Set(ctx, "c", []byte("3"), time.Minute)

	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok, _ := store.Get(ctx, "a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok, _ := store.Get(ctx, "c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestMemoryStoreEvictsExpiredFirst(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(2)

	_ = store.Set(ctx, "short", []byte("1"), time.Second)
	_ = store.Set(ctx, "long", []byte("2"), time.Hour)
	_, _, _ = store.Get(ctx, "short")
	clock.Advance(2 * time.Second)
	_ = store.Set(ctx, "new", []byte("3"), time.Hour)

	if _, ok, _ := store.Get(ctx, "long"); !ok {
		t.Error("live entry should not be evicted while an expired one exists")
	}
}

func TestMemoizeCachesSuccess(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(0)
	var calls int32

	memo := Memoize(store, MemoOptions{Namespace: "test", TTL: 300 * time.Second, Logger: logger.Nop()},
		func(s string) string { return s },
		func(_ context.Context, s string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "summary of " + s, nil
		})

	for i := 0; i < 3; i++ {
		got, err := memo(ctx, "text")
		if err != nil || got != "summary of text" {
			t.Fatalf("unexpected result %q %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}

	if _, err := memo(ctx, "other"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("distinct key should miss, calls=%d", calls)
	}

	clock.Advance(301 * time.Second)
	if _, err := memo(ctx, "text"); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expired entry should recompute, calls=%d", calls)
	}
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(0)
	var calls int32
	boom := errors.New("model down")

	memo := Memoize(store, MemoOptions{Namespace: "test", TTL: time.Minute, Logger: logger.Nop()},
		func(s string) string { return s },
		func(_ context.Context, s string) (string, error) {
			atomic.AddInt32(&calls, 1)
			return "", boom
		})

	for i := 0; i < 2; i++ {
		if _, err := memo(ctx, "x"); !errors.Is(err, boom) {
			t.Fatalf("expected error, got %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("errors must not be cached, calls=%d", calls)
	}
	if store.Len() != 0 {
		t.Errorf("store should be empty, len=%d", store.Len())
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestMemoizeStoreFailureFallsThrough(t *testing.T) {
	memo := Memoize[string, string](failingStore{}, MemoOptions{Namespace: "test", TTL: time.Minute, Logger: logger.Nop()},
		func(s string) string { return s },
		func(_ context.Context, s string) (string, error) { return "ok", nil })

	got, err := memo(context.Background(), "x")
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q %v", got, err)
	}
}

func TestMemoizeConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(MemoryConfig{MaxEntries: 16, CleanupInterval: time.Millisecond})
	defer store.Close()

	memo := Memoize(store, MemoOptions{Namespace: "test", TTL: time.Minute, Logger: logger.Nop()},
		func(n int) string { return fmt.Sprint(n) },
		func(_ context.Context, n int) (int, error) { return n * 2, nil })

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				n := (g + i) % 32
				got, err := memo(ctx, n)
				if err != nil || got != n*2 {
					t.Errorf("unexpected %d %v for %d", got, err, n)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if store.Len() > 16 {
		t.Errorf("store exceeded bound: %d", store.Len())
	}
}

func TestMemoizeCancelledCallerDoesNotFailOthers(t *testing.T) {
	store, _ := newTestStore(0)
	var calls int32
	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})

	memo := Memoize(store, MemoOptions{Namespace: "test", TTL: time.Minute, Logger: logger.Nop()},
		func(s string) string { return s },
		func(ctx context.Context, s string) (string, error) {
			atomic.AddInt32(&calls, 1)
			once.Do(func() { close(started) })
			<-release
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "summary of " + s, nil
		})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := memo(firstCtx, "text")
		firstErr <- err
	}()

	<-started
	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled caller to return context.Canceled, got %v", err)
	}

	type result struct {
		val string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := memo(context.Background(), "text")
		second <- result{v, err}
	}()
	close(release)

	r := <-second
	if r.err != nil || r.val != "summary of text" {
		t.Fatalf("expected shared result, got %q %v", r.val, r.err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected one call, got %d", n)
	}
	if store.Len() != 1 {
		t.Errorf("expected result cached, len=%d", store.Len())
	}
}

func TestMemoizeTimeoutBoundsSharedCall(t *testing.T) {
	store, _ := newTestStore(0)

	memo := Memoize(store, MemoOptions{Namespace: "test", TTL: time.Minute, Timeout: 10 * time.Millisecond, Logger: logger.Nop()},
		func(s string) string { return s },
		func(ctx context.Context, s string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	_, err := memo(context.Background(), "text")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("failed call must not be cached, len=%d", store.Len())
	}
}

func TestRedisStoreUnreachableIsCacheError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	store := NewRedisStore(client, "test:")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	if ok || !apperr.HasCode(err, apperr.CodeCacheError) {
		t.Errorf("expected cache error on get, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); !apperr.HasCode(err, apperr.CodeCacheError) {
		t.Errorf("expected cache error on set, got %v", err)
	}
}
