package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// cacheEntry represents a cached batch answer.
type cacheEntry struct {
	expiry time.Time
	rows   []model.ClassifiedRow
}

// responseCache remembers validated answers so a batch whose commit failed can
// be retried without a second provider call.
type responseCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// cacheKey hashes everything that influences the answer.
func cacheKey(system, user string) string {
	sum := sha256.Sum256([]byte(system + "\x00" + user))
	return hex.EncodeToString(sum[:])
}

func (c *responseCache) get(key string) ([]model.ClassifiedRow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return nil, false
	}

	rows := make([]model.ClassifiedRow, len(entry.rows))
	copy(rows, entry.rows)
	return rows, true
}

func (c *responseCache) set(key string, rows []model.ClassifiedRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]model.ClassifiedRow, len(rows))
	copy(stored, rows)
	c.entries[key] = cacheEntry{
		rows:   stored,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *responseCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *responseCache) Close() {
	close(c.stopCh)
}
