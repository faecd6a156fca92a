package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ResponseCache is a TTL cache for LLM responses with a hard entry bound.
// When the bound is exceeded the single oldest entry (by insertion time) is
// evicted. Identical normalized inputs always map to the same key, so
// repeated grading of the same content is reproducible within the TTL.
type ResponseCache struct {
	mu       sync.Mutex
	store    *gocache.Cache
	capacity int
}

func NewResponseCache(capacity int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		store:    gocache.New(ttl, 2*ttl),
		capacity: capacity,
	}
}

func (c *ResponseCache) Get(key string) (string, bool) {
	v, found := c.store.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *ResponseCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store.Get(key); !exists && c.store.ItemCount() >= c.capacity {
		c.evictOldest()
	}
	c.store.SetDefault(key, value)
}

// evictOldest removes the entry with the earliest expiration. All entries
// share the same TTL, so earliest expiration == oldest insertion.
func (c *ResponseCache) evictOldest() {
	var oldestKey string
	var oldestExp int64
	for k, item := range c.store.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey = k
			oldestExp = item.Expiration
		}
	}
	if oldestKey != "" {
		c.store.Delete(oldestKey)
	}
}

func (c *ResponseCache) Len() int {
	return c.store.ItemCount()
}

// normalizeText collapses whitespace and lowercases. This is the single
// canonicalization rule for every cache key in the system.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CacheKey derives a stable key from normalized content plus every
// parameter that affects model output. Parts are hashed in call order:
// the system and user prompts play different roles, so swapping them
// must produce a different key.
func CacheKey(model string, temperature float64, seed int, parts ...string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.3f|%d|", strings.ToLower(model), temperature, seed)
	for _, p := range parts {
		h.Write([]byte(normalizeText(p)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
