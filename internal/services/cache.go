package services

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"resume-analyzer/internal/models"
)

// CacheLayer stores finished analysis results keyed by content hash so
// byte-identical requests inside the TTL window skip the model entirely.
type CacheLayer interface {
	Get(key string) (*models.AnalysisResult, bool)
	Put(key string, result *models.AnalysisResult)
}

// BuildCacheKey hashes the resume text together with a bounded fingerprint
// of the job description. Identical semantic inputs always produce identical
// keys; structured field order cannot leak into the hash because the
// fingerprint is built by explicit field extraction.
func BuildCacheKey(resumeText string, jobDesc *models.JobDescription) string {
	sum := md5.Sum([]byte(resumeText + "||" + jobDesc.Fingerprint()))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	timestamp time.Time
	result    *models.AnalysisResult
}

type memoryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
}

// NewMemoryCache returns a process-local cache with lazy expiry on read and
// an entry cap: inserting past the cap evicts the oldest entry.
func NewMemoryCache(ttl time.Duration, maxEntries int) CacheLayer {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &memoryCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *memoryCache) Get(key string) (*models.AnalysisResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.timestamp) >= c.ttl {
		// Stale entries are ignored, not purged; Put overwrites them.
		return nil, false
	}
	return entry.result, true
}

func (c *memoryCache) Put(key string, result *models.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{timestamp: time.Now(), result: result}
}

func (c *memoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.timestamp.Before(oldest) {
			oldestKey = key
			oldest = entry.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
