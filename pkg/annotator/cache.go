package annotator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/FrenchMajesty/veracious/pkg/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Normalize returns the cache form of an item's text
func Normalize(text string) string {
	return strings.TrimSpace(text)
}

// Key returns the content address of a text
func Key(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Cache is a content-addressed store of classified items, bounded by LRU eviction
type Cache struct {
	entries *lru.Cache[string, types.Classification]
}

// NewCache creates a cache holding at most capacity texts
func NewCache(capacity int) (*Cache, error) {
	entries, err := lru.New[string, types.Classification](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Has reports whether text has a cached classification without touching recency
func (c *Cache) Has(text string) bool {
	return c.entries.Contains(Key(text))
}

// Get returns the cached classification for text
func (c *Cache) Get(text string) (types.Classification, bool) {
	return c.entries.Get(Key(text))
}

// Put stores result under text. An existing entry is never replaced; Put reports whether it inserted.
func (c *Cache) Put(text string, result types.Classification) bool {
	key := Key(text)
	if c.entries.Contains(key) {
		return false
	}
	c.entries.Add(key, result)
	return true
}

// Len returns the number of cached texts
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Values returns every cached classification, oldest first
func (c *Cache) Values() []types.Classification {
	return c.entries.Values()
}
