package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nereiddb/nereid/gql/ir"
	"github.com/nereiddb/nereid/gql/plan"
)

// PlanCache caches finished plans across sessions, keyed by the query
// graph's digest, the option fingerprint, and the statistics snapshot
// the plan was costed against. A changed snapshot means a miss, so
// stale estimates never outlive the data that produced them.
type PlanCache struct {
	cache map[string]*cachedPlan
	mu    sync.RWMutex

	hits   int64
	misses int64

	maxSize int
	ttl     time.Duration
}

type cachedPlan struct {
	plan      *plan.Plan
	timestamp time.Time
}

// NewPlanCache creates a plan cache. Non-positive limits get defaults.
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PlanCache{
		cache:   make(map[string]*cachedPlan),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached plan if present and not expired. A nil cache
// always misses.
func (c *PlanCache) Get(qg *ir.QueryGraph, opts Options, snapshot string) (*plan.Plan, bool) {
	if c == nil {
		return nil, false
	}

	key := computeKey(qg, opts, snapshot)

	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.cache[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	if time.Since(cached.timestamp) > c.ttl {
		// Lazy deletion happens on Set, avoiding a write lock here.
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return cached.plan, true
}

// Set stores a plan in the cache.
func (c *PlanCache) Set(qg *ir.QueryGraph, opts Options, snapshot string, p *plan.Plan) {
	if c == nil || p == nil {
		return
	}

	key := computeKey(qg, opts, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= c.maxSize {
		c.evictExpired()
		if len(c.cache) >= c.maxSize {
			c.evictOldest()
		}
	}

	c.cache[key] = &cachedPlan{plan: p, timestamp: time.Now()}
}

// Clear removes all cached plans and resets the counters.
func (c *PlanCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cachedPlan)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Stats returns cache statistics.
func (c *PlanCache) Stats() (hits, misses int64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), len(c.cache)
}

func computeKey(qg *ir.QueryGraph, opts Options, snapshot string) string {
	h := sha256.New()
	fmt.Fprintf(h, "GRAPH:%s;", qg.Digest())
	fmt.Fprintf(h, "OPTIONS:%s;", opts.fingerprint())
	fmt.Fprintf(h, "STATS:%s;", snapshot)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *PlanCache) evictExpired() {
	now := time.Now()
	for key, cached := range c.cache {
		if now.Sub(cached.timestamp) > c.ttl {
			delete(c.cache, key)
		}
	}
}

func (c *PlanCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	for key, cached := range c.cache {
		if oldestKey == "" || cached.timestamp.Before(oldestTime) {
			oldestKey = key
			oldestTime = cached.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.cache, oldestKey)
	}
}
