package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/outreach-leadgen/internal/domain"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestDraftCacheExpiresEntries(t *testing.T) {
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewDraftCache(Config{TTL: time.Minute, Now: c.Now})

	cache.Set("sig", Entry{Icp: domain.Icp{IndustryKeywords: []string{"payroll"}}, ModelID: "m1"})
	entry, ok := cache.Get("sig")
	require.True(t, ok)
	assert.Equal(t, "m1", entry.ModelID)

	c.now = c.now.Add(2 * time.Minute)
	_, ok = cache.Get("sig")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}

func TestDraftCacheReturnsCopies(t *testing.T) {
	cache := NewDraftCache(Config{})
	cache.Set("sig", Entry{Icp: domain.Icp{Industries: []string{"software"}}})

	entry, _ := cache.Get("sig")
	entry.Icp.Industries[0] = "mutated"

	again, _ := cache.Get("sig")
	assert.Equal(t, []string{"software"}, again.Icp.Industries)
}

func TestDraftCacheEvictsOldest(t *testing.T) {
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewDraftCache(Config{MaxEntries: 2, Now: c.Now})

	cache.Set("a", Entry{ModelID: "a"})
	c.now = c.now.Add(time.Second)
	cache.Set("b", Entry{ModelID: "b"})
	c.now = c.now.Add(time.Second)
	cache.Set("c", Entry{ModelID: "c"})

	_, ok := cache.Get("a")
	assert.False(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestBuildSignatureNormalizesWhitespaceAndCase(t *testing.T) {
	assert.Equal(t, BuildSignature("Payroll  SaaS", "HR"), BuildSignature(" payroll saas ", "hr"))
	assert.NotEqual(t, BuildSignature("payroll", "hr"), BuildSignature("hr", "payroll"))
}
