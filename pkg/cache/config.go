package cache

import "time"

// MemoryOption configures Memory cache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds memory cache configuration.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration

	// OnEvict runs when an entry is removed by LRU pressure or expiry (not
	// on explicit Delete).
	OnEvict func(key string, value interface{})
}

// WithMemoryMaxSize sets max cache size.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		c.MaxSize = size
	}
}

// WithMemoryCleanup sets cleanup interval.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		c.CleanupInterval = interval
	}
}

// WithEvictionHook sets the eviction callback.
func WithEvictionHook(fn func(key string, value interface{})) MemoryOption {
	return func(c *MemoryConfig) {
		c.OnEvict = fn
	}
}
