// Package cache keeps decoded profile entities in memory, keyed by
// (entity type, user). It is disposable: entries never expire on their own
// and every write path invalidates before reporting success.
//
// Reads that miss take a Ticket from Lookup and hand it back to Fill. A fill
// is dropped when the key was invalidated in between, so a slow read cannot
// reinstall data older than a concurrent write.
package cache

import (
	"sync"
	"time"

	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
)

type key struct {
	entityType models.EntityType
	userID     id.UserID
}

type entry struct {
	value     any
	updatedAt time.Time
}

// Ticket identifies the key generation observed at a miss.
type Ticket struct {
	key   key
	gen   uint64
	epoch uint64
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Invalidations uint64 `json:"invalidations"`
	StaleFills    uint64 `json:"staleFills"`
	Entries       int    `json:"entries"`
}

type Cache struct {
	mu      sync.Mutex
	entries map[key]entry
	gens    map[key]uint64
	epoch   uint64
	stats   Stats
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Cache)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[key]entry),
		gens:    make(map[key]uint64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value, counting a hit or a miss.
func (c *Cache) Get(entityType models.EntityType, userID id.UserID) (any, bool) {
	v, _, ok := c.Lookup(entityType, userID)
	return v, ok
}

// Lookup is Get plus a Ticket for filling the key after a miss.
func (c *Cache) Lookup(entityType models.EntityType, userID id.UserID) (any, Ticket, bool) {
	k := key{entityType: entityType, userID: userID}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Ticket{key: k, gen: c.gens[k], epoch: c.epoch}
	if e, ok := c.entries[k]; ok {
		c.stats.Hits++
		c.metrics.IncCacheHit(string(entityType))
		return e.value, t, true
	}
	if _, tracked := c.gens[k]; !tracked {
		c.gens[k] = 0
	}
	c.stats.Misses++
	c.metrics.IncCacheMiss(string(entityType))
	return nil, t, false
}

// Fill stores value if the key is still at the ticket's generation.
func (c *Cache) Fill(t Ticket, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.epoch != c.epoch || t.gen != c.gens[t.key] {
		c.stats.StaleFills++
		c.metrics.IncCacheStaleFill()
		return false
	}
	c.entries[t.key] = entry{value: value, updatedAt: c.now()}
	return true
}

// Put stores value unconditionally.
func (c *Cache) Put(entityType models.EntityType, userID id.UserID, value any) {
	k := key{entityType: entityType, userID: userID}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry{value: value, updatedAt: c.now()}
}

// Invalidate drops the entry and advances the key's generation, voiding
// outstanding tickets.
func (c *Cache) Invalidate(entityType models.EntityType, userID id.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key{entityType: entityType, userID: userID})
}

func (c *Cache) invalidateLocked(k key) {
	delete(c.entries, k)
	c.gens[k]++
	c.stats.Invalidations++
	c.metrics.IncCacheInvalidation(string(k.entityType))
}

// InvalidateUser drops every entry belonging to userID.
func (c *Cache) InvalidateUser(userID id.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[key]bool)
	for k := range c.entries {
		if k.userID == userID {
			seen[k] = true
		}
	}
	for k := range c.gens {
		if k.userID == userID {
			seen[k] = true
		}
	}
	for k := range seen {
		c.invalidateLocked(k)
	}
}

// Reset empties the cache and voids all outstanding tickets.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]entry)
	c.gens = make(map[key]uint64)
	c.epoch++
}

// LastUpdate reports when the entry was last stored.
func (c *Cache) LastUpdate(entityType models.EntityType, userID id.UserID) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key{entityType: entityType, userID: userID}]
	return e.updatedAt, ok
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}
