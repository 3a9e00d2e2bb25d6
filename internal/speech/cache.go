/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speech

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Cache defaults.
const (
	DefaultCacheTTL     = 20 * time.Minute
	DefaultCacheEntries = 50
	cacheKeyPrefixRunes = 50
)

// CacheKey identifies synthesized audio by voice settings, the first 50
// runes of text and its rune length.
func CacheKey(voice string, rate, pitch float64, text string) string {
	runes := []rune(text)
	prefix := runes
	if len(prefix) > cacheKeyPrefixRunes {
		prefix = prefix[:cacheKeyPrefixRunes]
	}
	return fmt.Sprintf("%s|%.2f|%.2f|%s|%d", voice, rate, pitch, string(prefix), len(runes))
}

// BlobKey is the object name used for key in shared tiers.
func BlobKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "speech/" + hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	key     string
	audio   []byte
	expires time.Time
}

// memoryCache is a bounded TTL cache; the oldest insert is evicted first.
type memoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	order   *list.List
	entries map[string]*list.Element
}

func newMemoryCache(ttl time.Duration, max int, now func() time.Time) *memoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if max <= 0 {
		max = DefaultCacheEntries
	}
	return &memoryCache{
		ttl:     ttl,
		max:     max,
		now:     now,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *memoryCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if !c.now().Before(e.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	return e.audio, true
}

func (c *memoryCache) put(key string, audio []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, audio: audio, expires: c.now().Add(c.ttl)})

	for c.order.Len() > c.max {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *memoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
