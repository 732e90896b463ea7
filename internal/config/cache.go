package config

import "time"

// SearchCacheConfig defines settings for the query-fingerprint result
// cache. When Enabled is false or no Redis client is configured, search
// results are recomputed on every request. TTL bounds how long a cached
// result set may serve pages before the pipeline runs again; Prefix
// namespaces the cache keys.
type SearchCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadSearchCacheConfig reads environment variables to build a
// SearchCacheConfig. Defaults are used when variables are not set.
func LoadSearchCacheConfig() SearchCacheConfig {
	return SearchCacheConfig{
		Enabled: envBool("SEARCH_CACHE_ENABLED", true),
		TTL:     envDur("SEARCH_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("SEARCH_CACHE_PREFIX", "search"),
	}
}
