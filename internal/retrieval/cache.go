package retrieval

import (
	"container/list"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/domain"
	"github.com/rutopia/productobot/internal/metrics"
)

const queryCacheCapacity = 512

// QueryCache memoizes extracted narratives per (domain, query) so repeated
// questions skip the extraction reasoning call. Disabled it is a no-op, so
// callers never branch on the flag.
type QueryCache struct {
	enabled bool
	ttl     time.Duration
	redis   *circuitbreaker.RedisWrapper

	mu    sync.Mutex
	list  *list.List
	local map[string]*list.Element
}

type queryCacheEntry struct {
	key string
	n   Narrative
	exp time.Time
}

// NewQueryCache builds a cache backed by an in-process LRU and, when a
// Redis wrapper is supplied, a shared Redis layer.
func NewQueryCache(enabled bool, ttl time.Duration, redis *circuitbreaker.RedisWrapper) *QueryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QueryCache{
		enabled: enabled,
		ttl:     ttl,
		redis:   redis,
		list:    list.New(),
		local:   make(map[string]*list.Element),
	}
}

func queryCacheKey(tag domain.Tag, query string) string {
	h := md5.Sum([]byte(string(tag) + "|" + query))
	return "qc:" + hex.EncodeToString(h[:])
}

// Get returns a previously extracted narrative for the query, if cached.
func (c *QueryCache) Get(ctx context.Context, tag domain.Tag, query string) (Narrative, bool) {
	if c == nil || !c.enabled {
		return Narrative{}, false
	}
	key := queryCacheKey(tag, query)

	c.mu.Lock()
	if el, ok := c.local[key]; ok {
		ent := el.Value.(queryCacheEntry)
		if ent.exp.After(time.Now()) {
			c.list.MoveToFront(el)
			c.mu.Unlock()
			metrics.QueryCacheHits.WithLabelValues("local").Inc()
			return ent.n, true
		}
		c.list.Remove(el)
		delete(c.local, key)
	}
	c.mu.Unlock()

	if c.redis == nil {
		metrics.QueryCacheMisses.WithLabelValues("local").Inc()
		return Narrative{}, false
	}
	b, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		metrics.QueryCacheMisses.WithLabelValues("redis").Inc()
		return Narrative{}, false
	}
	var n Narrative
	if err := json.Unmarshal(b, &n); err != nil {
		metrics.QueryCacheMisses.WithLabelValues("redis").Inc()
		return Narrative{}, false
	}
	c.putLocal(key, n)
	metrics.QueryCacheHits.WithLabelValues("redis").Inc()
	return n, true
}

// Put stores an extracted narrative under its query key.
func (c *QueryCache) Put(ctx context.Context, tag domain.Tag, query string, n Narrative) {
	if c == nil || !c.enabled {
		return
	}
	key := queryCacheKey(tag, query)
	c.putLocal(key, n)
	if c.redis != nil {
		if b, err := json.Marshal(n); err == nil {
			_ = c.redis.Set(ctx, key, b, c.ttl).Err()
		}
	}
}

func (c *QueryCache) putLocal(key string, n Narrative) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.local[key]; ok {
		el.Value = queryCacheEntry{key: key, n: n, exp: time.Now().Add(c.ttl)}
		c.list.MoveToFront(el)
		return
	}
	el := c.list.PushFront(queryCacheEntry{key: key, n: n, exp: time.Now().Add(c.ttl)})
	c.local[key] = el
	if c.list.Len() > queryCacheCapacity {
		if back := c.list.Back(); back != nil {
			ent := back.Value.(queryCacheEntry)
			delete(c.local, ent.key)
			c.list.Remove(back)
		}
	}
}
