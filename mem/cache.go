package mem

import (
	"encoding/binary"
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// CacheConfig holds cache geometry and timing parameters. NumLines and
// BlockSize must be powers of two.
type CacheConfig struct {
	// NumLines is the number of cache lines.
	NumLines int
	// BlockSize is the line size in bytes.
	BlockSize int
	// HitLatency in cycles.
	HitLatency uint64
	// MissLatency in cycles, including the next-level access.
	MissLatency uint64
}

// Validate checks the geometry and timing parameters.
func (c CacheConfig) Validate() error {
	if c.NumLines <= 0 || c.NumLines&(c.NumLines-1) != 0 {
		return fmt.Errorf("num lines %d is not a power of two", c.NumLines)
	}
	if c.BlockSize < WordSize || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block size %d is not a power of two of at least %d",
			c.BlockSize, WordSize)
	}
	if c.HitLatency < 1 {
		return fmt.Errorf("hit latency must be at least 1 cycle, got %d", c.HitLatency)
	}
	if c.MissLatency < c.HitLatency {
		return fmt.Errorf("miss latency %d is below hit latency %d",
			c.MissLatency, c.HitLatency)
	}
	return nil
}

// DefaultCacheConfig returns a small configuration suitable for
// observing hit/miss behavior: 16 lines of 16 bytes.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		NumLines:    16,
		BlockSize:   16,
		HitLatency:  1,
		MissLatency: 10,
	}
}

// AccessResult describes one cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Evicted is true if a resident line was displaced.
	Evicted bool
	// WritebackAddr is the block address written back, if a dirty line
	// was displaced.
	WritebackAddr uint32
}

// CacheStats holds per-instance cache counters.
type CacheStats struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns hits / (hits + misses).
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore is the next level in the memory hierarchy.
// PhysicalMemory implements it.
type BackingStore interface {
	// ReadBlock fetches a block from the backing store.
	ReadBlock(addr uint32, size int) []byte
	// WriteBlock stores a block to the backing store.
	WriteBlock(addr uint32, data []byte)
}

// Cache is a direct-mapped, write-back, write-allocate cache in front
// of a backing store. Line state is kept in an Akita cache directory
// configured with a single way per set.
type Cache struct {
	config CacheConfig

	directory *akitacache.DirectoryImpl
	dataStore [][]byte

	stats   CacheStats
	backing BackingStore
}

// NewCache creates a cache with the given configuration.
func NewCache(config CacheConfig, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	dataStore := make([][]byte, config.NumLines)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumLines,
			1,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() CacheConfig {
	return c.config
}

// Stats returns the cache counters.
func (c *Cache) Stats() CacheStats {
	return c.stats
}

// blockAddr aligns an address down to its block boundary.
func (c *Cache) blockAddr(addr uint32) uint32 {
	return addr &^ uint32(c.config.BlockSize-1)
}

// lineData returns the data array for a directory block. With one way
// per set the set ID indexes the lines directly.
func (c *Cache) lineData(block *akitacache.Block) []byte {
	return c.dataStore[block.SetID]
}

// Read reads the word at addr through the cache.
func (c *Cache) Read(addr uint32) (int32, AccessResult) {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, uint64(blockAddr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := int(addr) - int(blockAddr)
		value := extractWord(c.lineData(block), offset)
		return value, AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	block, result := c.handleMiss(addr)
	offset := int(addr) - int(blockAddr)
	return extractWord(c.lineData(block), offset), result
}

// Write writes a word at addr through the cache. On a miss the full
// block is fetched first (write-allocate), then modified.
func (c *Cache) Write(addr uint32, value int32) AccessResult {
	c.stats.Writes++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, uint64(blockAddr))
	result := AccessResult{Hit: true, Latency: c.config.HitLatency}

	if block == nil || !block.IsValid {
		c.stats.Misses++
		block, result = c.handleMiss(addr)
	} else {
		c.stats.Hits++
		c.directory.Visit(block)
	}

	offset := int(addr) - int(blockAddr)
	storeWord(c.lineData(block), offset, value)
	block.IsDirty = true

	return result
}

// handleMiss fills the line covering addr from the backing store,
// writing back the displaced block first if it is dirty.
func (c *Cache) handleMiss(addr uint32) (*akitacache.Block, AccessResult) {
	result := AccessResult{Hit: false, Latency: c.config.MissLatency}

	blockAddr := c.blockAddr(addr)
	victim := c.directory.FindVictim(uint64(blockAddr))
	victimData := c.lineData(victim)

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true

		if victim.IsDirty {
			c.stats.Writebacks++
			// Tag stores the block-aligned address directly.
			result.WritebackAddr = uint32(victim.Tag)
			c.backing.WriteBlock(uint32(victim.Tag), victimData)
		}
	}

	copy(victimData, c.backing.ReadBlock(blockAddr, c.config.BlockSize))

	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victim, result
}

// Flush writes back every dirty valid line without invalidating it.
// Lines stay resident and clean.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
				c.backing.WriteBlock(uint32(block.Tag), c.lineData(block))
				block.IsDirty = false
			}
		}
	}
}

// Reset invalidates every line without writeback and zeroes the
// counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = CacheStats{}
}

// extractWord reads a little-endian word from a block at offset.
func extractWord(data []byte, offset int) int32 {
	if offset < 0 || offset+WordSize > len(data) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(data[offset:]))
}

// storeWord writes a little-endian word into a block at offset.
func storeWord(data []byte, offset int, value int32) {
	if offset < 0 || offset+WordSize > len(data) {
		return
	}
	binary.LittleEndian.PutUint32(data[offset:], uint32(value))
}
