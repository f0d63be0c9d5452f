package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/internal/models"
)

func sampleResult(score int) *models.AnalysisResult {
	return &models.AnalysisResult{Score: score}
}

func TestMemoryCache_PutAndGet(t *testing.T) {
	cache := NewMemoryCache(time.Hour, 10)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Put("key", sampleResult(72))
	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 72, got.Score)
}

func TestMemoryCache_ExpiresLazily(t *testing.T) {
	cache := NewMemoryCache(20*time.Millisecond, 10)

	cache.Put("key", sampleResult(72))
	time.Sleep(30 * time.Millisecond)

	_, ok := cache.Get("key")
	assert.False(t, ok, "stale entries must behave as misses")
}

func TestMemoryCache_PutOverwrites(t *testing.T) {
	cache := NewMemoryCache(time.Hour, 10)

	cache.Put("key", sampleResult(50))
	cache.Put("key", sampleResult(80))

	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 80, got.Score)
}

func TestMemoryCache_EvictsOldestAtCapacity(t *testing.T) {
	cache := NewMemoryCache(time.Hour, 3)

	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("key-%d", i), sampleResult(i))
		time.Sleep(time.Millisecond)
	}
	cache.Put("key-3", sampleResult(3))

	_, ok := cache.Get("key-0")
	assert.False(t, ok, "oldest entry should be evicted")
	for i := 1; i <= 3; i++ {
		_, ok := cache.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok, "key-%d should survive", i)
	}
}

func TestBuildCacheKey_Deterministic(t *testing.T) {
	jd := models.RawJobDescription("Senior Go developer, Kubernetes, gRPC")

	key1 := BuildCacheKey("resume text", jd)
	key2 := BuildCacheKey("resume text", jd)
	assert.Equal(t, key1, key2)
}

func TestBuildCacheKey_JobDescriptionPresenceChangesKey(t *testing.T) {
	withJob := BuildCacheKey("resume text", models.RawJobDescription("Go developer"))
	withoutJob := BuildCacheKey("resume text", nil)

	assert.NotEqual(t, withJob, withoutJob)
}

func TestBuildCacheKey_StructuredFingerprintUsesExplicitFields(t *testing.T) {
	first := models.StructuredJobDescription(models.JobFields{
		RoleTitle: "Backend Engineer",
		Company:   "Acme",
		Skills:    []string{"Go", "PostgreSQL"},
	})
	second := models.StructuredJobDescription(models.JobFields{
		Company:   "Acme",
		Skills:    []string{"Go", "PostgreSQL"},
		RoleTitle: "Backend Engineer",
	})

	assert.Equal(t, BuildCacheKey("resume", first), BuildCacheKey("resume", second))

	different := models.StructuredJobDescription(models.JobFields{
		RoleTitle: "Data Engineer",
		Company:   "Acme",
		Skills:    []string{"Python"},
	})
	assert.NotEqual(t, BuildCacheKey("resume", first), BuildCacheKey("resume", different))
}
