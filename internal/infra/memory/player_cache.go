package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// PlayerDirectory answers whether a player is registered for a quiz.
type PlayerDirectory interface {
	PlayerExists(ctx context.Context, quizID, playerID string) (bool, error)
}

// PlayerCache caches positive registration lookups with a TTL to avoid
// repeated calls to the player service. Players are never unregistered, so
// only "exists" answers are cached; misses are asked again every time.
type PlayerCache struct {
	next  PlayerDirectory
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	known map[string]time.Time
}

func NewPlayerCache(next PlayerDirectory, ttl time.Duration) *PlayerCache {
	return &PlayerCache{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		known: make(map[string]time.Time),
	}
}

func (c *PlayerCache) PlayerExists(ctx context.Context, quizID, playerID string) (bool, error) {
	key := quizID + "/" + playerID

	if c.cached(key) {
		return true, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if c.cached(key) {
			return true, nil
		}
		ok, err := c.next.PlayerExists(ctx, quizID, playerID)
		if err != nil || !ok {
			return false, err
		}
		c.mu.Lock()
		c.known[key] = c.clock().Add(c.ttlWithJitter())
		c.mu.Unlock()
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (c *PlayerCache) cached(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	expiresAt, ok := c.known[key]
	return ok && expiresAt.After(c.clock())
}

func (c *PlayerCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
