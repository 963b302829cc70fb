package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/models"
)

func TestGetPutInvalidate(t *testing.T) {
	c := New()

	_, ok := c.Get(models.EntityPassport, "u1")
	assert.False(t, ok)

	c.Put(models.EntityPassport, "u1", "p1")
	v, ok := c.Get(models.EntityPassport, "u1")
	require.True(t, ok)
	assert.Equal(t, "p1", v)

	c.Invalidate(models.EntityPassport, "u1")
	_, ok = c.Get(models.EntityPassport, "u1")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(1), stats.Invalidations)
	assert.Equal(t, 0, stats.Entries)
}

func TestFillDiscardedAfterInvalidate(t *testing.T) {
	c := New()
	_, ticket, ok := c.Lookup(models.EntityPassport, "u1")
	require.False(t, ok)

	c.Invalidate(models.EntityPassport, "u1")
	assert.False(t, c.Fill(ticket, "stale"))

	_, ok = c.Get(models.EntityPassport, "u1")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().StaleFills)

	_, fresh, _ := c.Lookup(models.EntityPassport, "u1")
	assert.True(t, c.Fill(fresh, "fresh"))
	v, ok := c.Get(models.EntityPassport, "u1")
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestFillDiscardedAfterReset(t *testing.T) {
	c := New()
	_, ticket, _ := c.Lookup(models.EntityFundItem, "u1")
	c.Reset()
	assert.False(t, c.Fill(ticket, "stale"))
}

func TestInvalidateUser(t *testing.T) {
	c := New()
	c.Put(models.EntityPassport, "u1", 1)
	c.Put(models.EntityFundItem, "u1", 2)
	c.Put(models.EntityPassport, "u2", 3)
	_, pending, _ := c.Lookup(models.EntityTravelInfo, "u1")

	c.InvalidateUser("u1")

	_, ok := c.Get(models.EntityPassport, "u1")
	assert.False(t, ok)
	_, ok = c.Get(models.EntityPassport, "u2")
	assert.True(t, ok)
	assert.False(t, c.Fill(pending, "stale"))
}

func TestLastUpdate(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return fixed }))
	c.Put(models.EntityPassport, "u1", 1)
	at, ok := c.LastUpdate(models.EntityPassport, "u1")
	require.True(t, ok)
	assert.Equal(t, fixed, at)
}

func TestMetricsMirrorCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(WithMetrics(m))
	c.Get(models.EntityPassport, "u1")
	c.Put(models.EntityPassport, "u1", 1)
	c.Get(models.EntityPassport, "u1")
	c.Invalidate(models.EntityPassport, "u1")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits.WithLabelValues("passport")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMisses.WithLabelValues("passport")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheInvalidations.WithLabelValues("passport")))
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, ticket, ok := c.Lookup(models.EntityPassport, "u1"); !ok {
				c.Fill(ticket, i)
			}
		}()
		go func() {
			defer wg.Done()
			c.Invalidate(models.EntityPassport, "u1")
		}()
	}
	wg.Wait()
	stats := c.Stats()
	assert.Equal(t, uint64(50), stats.Invalidations)
	assert.Equal(t, uint64(50), stats.Hits+stats.Misses)
}
