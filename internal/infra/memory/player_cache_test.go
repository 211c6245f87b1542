package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPlayerCacheCachesHits(t *testing.T) {
	dir := &countingDirectory{known: map[string]bool{"0/p1": true}}
	cache := NewPlayerCache(dir, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := cache.PlayerExists(context.Background(), "0", "p1")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
	}
	if dir.count() != 1 {
		t.Fatalf("expected directory called once, got %d", dir.count())
	}
}

func TestPlayerCacheDoesNotCacheMisses(t *testing.T) {
	dir := &countingDirectory{known: map[string]bool{}}
	cache := NewPlayerCache(dir, time.Minute)

	if ok, _ := cache.PlayerExists(context.Background(), "0", "p1"); ok {
		t.Fatalf("expected miss")
	}
	dir.add("0/p1")
	if ok, _ := cache.PlayerExists(context.Background(), "0", "p1"); !ok {
		t.Fatalf("expected newly registered player to be found")
	}
	if dir.count() != 2 {
		t.Fatalf("expected two directory calls, got %d", dir.count())
	}
}

func TestPlayerCacheExpires(t *testing.T) {
	dir := &countingDirectory{known: map[string]bool{"0/p1": true}}
	cache := NewPlayerCache(dir, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.PlayerExists(context.Background(), "0", "p1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.PlayerExists(context.Background(), "0", "p1")
	if dir.count() != 2 {
		t.Fatalf("expected refresh after ttl, got %d calls", dir.count())
	}
}

func TestPlayerCachePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	cache := NewPlayerCache(&countingDirectory{err: boom}, time.Minute)
	if _, err := cache.PlayerExists(context.Background(), "0", "p1"); !errors.Is(err, boom) {
		t.Fatalf("expected directory error, got %v", err)
	}
}

type countingDirectory struct {
	mu    sync.Mutex
	known map[string]bool
	calls int
	err   error
}

func (d *countingDirectory) PlayerExists(_ context.Context, quizID, playerID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return false, d.err
	}
	return d.known[quizID+"/"+playerID], nil
}

func (d *countingDirectory) add(key string) {
	d.mu.Lock()
	d.known[key] = true
	d.mu.Unlock()
}

func (d *countingDirectory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
