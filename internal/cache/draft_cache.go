package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/iago/outreach-leadgen/internal/domain"
)

// Entry is a cached ICP draft.
type Entry struct {
	Icp           domain.Icp
	ModelID       string
	PromptVersion string
	Score         float64
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
}

// DraftCache keeps recent ICP drafts keyed by a normalized prompt signature
// so repeated descriptions do not hit the model again.
type DraftCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewDraftCache(config Config) *DraftCache {
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &DraftCache{
		entries:    make(map[string]Entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        config.Now,
	}
}

func (c *DraftCache) Get(signature string) (Entry, bool) {
	c.mu.RLock()
	entry, exists := c.entries[signature]
	c.mu.RUnlock()

	if !exists {
		return Entry{}, false
	}
	if c.now().UTC().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, signature)
		c.mu.Unlock()
		return Entry{}, false
	}
	return cloneEntry(entry), true
}

func (c *DraftCache) Set(signature string, entry Entry) {
	now := c.now().UTC()
	entry = cloneEntry(entry)
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[signature]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[signature] = entry
}

func (c *DraftCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// BuildSignature hashes the parts case- and whitespace-insensitively.
func BuildSignature(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized = append(normalized, strings.Join(strings.Fields(strings.ToLower(part)), " "))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "||")))
	return hex.EncodeToString(sum[:])
}

func (c *DraftCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, value := range c.entries {
		if !found || value.CreatedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, value.CreatedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func cloneEntry(entry Entry) Entry {
	clone := entry
	clone.Icp = entry.Icp.Clone()
	return clone
}
