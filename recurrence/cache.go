package recurrence

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"sync"
	"time"
)

// CacheEntry represents a cached occurrence source
type CacheEntry struct {
	Source     *OccurrenceSource
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// RecurrenceCache caches built occurrence sources keyed by a fingerprint of
// the whole recurrence set, so any change to a member rule or rdate misses.
// Eviction happens inline on Get and Set; there is no background goroutine.
type RecurrenceCache struct {
	entries    map[string]*CacheEntry
	mutex      sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`         // How long entries stay valid
	MaxEntries int           `yaml:"max_entries"` // Maximum number of entries before eviction
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:        15 * time.Minute, // Cache results for 15 minutes
	MaxEntries: 1000,             // Keep up to 1000 cached results
}

// NewRecurrenceCache creates a new recurrence cache with the given configuration
func NewRecurrenceCache(config CacheConfig) *RecurrenceCache {
	return &RecurrenceCache{
		entries:    make(map[string]*CacheEntry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        time.Now,
	}
}

// Fingerprint hashes every field of set that affects its occurrences.
func Fingerprint(set *RecurrenceSet) string {
	hasher := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			hasher.Write([]byte(p))
			hasher.Write([]byte{0})
		}
	}

	write("tz", set.Timezone)
	for _, r := range set.Rules {
		write("rule", r.ID, r.Frequency.String(), r.YearMonthMode.String(), r.Start.String(),
			strconv.Itoa(r.Interval), r.WeekStart.String(), r.Terminator.String(),
			strconv.Itoa(r.Count), strconv.FormatBool(r.Exclude))
		if r.Until != nil {
			write("until", r.Until.String())
		}
		writeInts(hasher, "bymonth", r.ByMonth)
		writeInts(hasher, "bymonthday", r.ByMonthDay)
		writeInts(hasher, "bysetpos", r.BySetPos)
		write("byweekday")
		write(r.ByWeekday...)
	}
	for _, d := range set.RDates {
		write("rdate", d.Date.String(), strconv.FormatBool(d.Exclude))
	}

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func writeInts(h hash.Hash, label string, values []int) {
	h.Write([]byte(label))
	for _, v := range values {
		h.Write([]byte{','})
		h.Write([]byte(strconv.Itoa(v)))
	}
	h.Write([]byte{0})
}

// Get retrieves a cached source if it exists and hasn't expired
func (c *RecurrenceCache) Get(set *RecurrenceSet) (*OccurrenceSource, bool) {
	key := Fingerprint(set)
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	entry.AccessedAt = now
	return entry.Source, true
}

// Set stores a source in the cache
func (c *RecurrenceCache) Set(set *RecurrenceSet, source *OccurrenceSource) {
	key := Fingerprint(set)
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &CacheEntry{
		Source:     source,
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	if len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
}

// cleanup removes expired entries and oldest entries if over limit
func (c *RecurrenceCache) cleanup(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keyAccessList := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keyAccessList = append(keyAccessList, keyAccess{key: key, accessedAt: entry.AccessedAt})
	}
	sort.Slice(keyAccessList, func(i, j int) bool {
		return keyAccessList[i].accessedAt.Before(keyAccessList[j].accessedAt)
	})

	entriesToRemove := len(c.entries) - c.maxEntries
	for i := 0; i < entriesToRemove; i++ {
		delete(c.entries, keyAccessList[i].key)
	}
}

// Clear drops every entry
func (c *RecurrenceCache) Clear() {
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := c.now()

	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
