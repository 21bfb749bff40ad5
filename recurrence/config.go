package recurrence

import (
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool        `yaml:"cache_enabled"`
	CacheConfig  CacheConfig `yaml:"cache"`

	// MaxExpansionOccurrences caps how many instants Expand returns (0 = unlimited)
	MaxExpansionOccurrences int `yaml:"max_expansion_occurrences"`
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxExpansionOccurrences: 1000,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:        30 * time.Minute, // Longer cache TTL
		MaxEntries: 5000,             // More cache entries
	},

	MaxExpansionOccurrences: 500,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:        5 * time.Minute, // Shorter cache TTL
		MaxEntries: 100,             // Fewer cache entries
	},

	MaxExpansionOccurrences: 200,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	MaxExpansionOccurrences: 5000,
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...Option) *Engine {
	var cache *RecurrenceCache
	if config.CacheEnabled {
		cache = NewRecurrenceCache(config.CacheConfig)
	}

	e := &Engine{
		cache:  cache,
		config: config,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
