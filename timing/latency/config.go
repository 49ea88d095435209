// Package latency holds the timing parameters of the memory hierarchy
// and derived metrics over them.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config sets the cycle costs of the memory hierarchy.
type Config struct {
	// CacheHitLatency is the cost of a cache hit, in cycles.
	CacheHitLatency uint64 `json:"cache_hit_latency"`
	// CacheMissPenalty is the additional cost of a cache miss, in
	// cycles.
	CacheMissPenalty uint64 `json:"cache_miss_penalty"`
	// MemoryLatency is the cost of an uncached memory access, in
	// cycles.
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultConfig returns the timing used when no file is given.
func DefaultConfig() Config {
	return Config{
		CacheHitLatency:  1,
		CacheMissPenalty: 9,
		MemoryLatency:    10,
	}
}

// LoadConfig reads a timing configuration from a JSON file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading timing config: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing timing config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.CacheHitLatency == 0 {
		return fmt.Errorf("cache hit latency must be at least 1 cycle")
	}
	if c.MemoryLatency == 0 {
		return fmt.Errorf("memory latency must be at least 1 cycle")
	}
	return nil
}

// MissLatency returns the total cost of a cache miss, in cycles.
func (c Config) MissLatency() uint64 {
	return c.CacheHitLatency + c.CacheMissPenalty
}

// AMAT returns the average memory access time for a given hit rate.
func (c Config) AMAT(hitRate float64) float64 {
	return float64(c.CacheHitLatency) +
		(1-hitRate)*float64(c.CacheMissPenalty)
}
