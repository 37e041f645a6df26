package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	"github.com/sarchlab/rvpipe/emu"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
}

// DefaultL1DConfig returns a small L1 data cache configuration
// sized for the default 4 KiB data memory: 1 KiB, 2-way, 16-byte lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     16,
	}
}

// Validate checks that the geometry describes at least one whole set of
// word-multiple blocks.
func (c Config) Validate() error {
	if c.BlockSize < emu.WordBytes || c.BlockSize%emu.WordBytes != 0 {
		return fmt.Errorf("block size %d is not a positive multiple of %d",
			c.BlockSize, emu.WordBytes)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be positive, got %d", c.Associativity)
	}
	setBytes := c.Associativity * c.BlockSize
	if c.Size < setBytes || c.Size%setBytes != 0 {
		return fmt.Errorf("size %d is not a multiple of associativity*block size (%d)",
			c.Size, setBytes)
	}
	return nil
}

// NumSets returns the number of sets.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Data is the word read (for load operations).
	Data uint32
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint32
}

// Cache represents an L1 data cache using Akita cache components. It is
// write-through with write-allocate, so the backing store always holds the
// current data and evictions never write back.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]uint32

	stats Statistics

	backing BackingStore
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64 `json:"reads"`
	Writes    uint64 `json:"writes"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns the hit rate as a percentage.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.NumSets()
	totalBlocks := numSets * config.Associativity
	wordsPerBlock := config.BlockSize / emu.WordBytes

	dataStore := make([][]uint32, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]uint32, wordsPerBlock)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	bs := uint64(c.config.BlockSize)
	return uint64(addr) / bs * bs
}

func (c *Cache) wordOffset(addr uint32) int {
	return int(addr%uint32(c.config.BlockSize)) / emu.WordBytes
}

func (c *Cache) lookup(addr uint32) *akitacache.Block {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		return block
	}
	return nil
}

// Read loads the word at addr. The address is checked against the backing
// store before the cache is consulted, so statistics only count legal
// accesses.
func (c *Cache) Read(addr uint32) (AccessResult, error) {
	word, err := c.backing.LoadWord(addr)
	if err != nil {
		return AccessResult{}, err
	}

	c.stats.Reads++

	if block := c.lookup(addr); block != nil {
		c.stats.Hits++
		c.directory.Visit(block)
		return AccessResult{
			Hit:  true,
			Data: c.dataStore[c.blockIndex(block)][c.wordOffset(addr)],
		}, nil
	}

	c.stats.Misses++
	result := c.fill(addr)
	result.Data = word
	return result, nil
}

// Write stores the word at addr through to the backing store and updates
// the cached copy, allocating the block on a miss.
func (c *Cache) Write(addr uint32, value uint32) (AccessResult, error) {
	if err := c.backing.StoreWord(addr, value); err != nil {
		return AccessResult{}, err
	}

	c.stats.Writes++

	block := c.lookup(addr)
	result := AccessResult{Hit: block != nil}
	if block != nil {
		c.stats.Hits++
		c.directory.Visit(block)
	} else {
		c.stats.Misses++
		result = c.fill(addr)
		block = c.lookup(addr)
	}

	c.dataStore[c.blockIndex(block)][c.wordOffset(addr)] = value
	return result, nil
}

// fill brings the block holding addr in from the backing store. Words of
// the block that fall outside the backing store read as zero.
func (c *Cache) fill(addr uint32) AccessResult {
	result := AccessResult{}
	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)
	}

	data := c.dataStore[c.blockIndex(victim)]
	for i := range data {
		word, err := c.backing.LoadWord(uint32(blockAddr) + uint32(i*emu.WordBytes))
		if err != nil {
			word = 0
		}
		data[i] = word
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return result
}

// Contains returns true if the block holding addr is cached.
func (c *Cache) Contains(addr uint32) bool {
	return c.lookup(addr) != nil
}

// Invalidate marks a cache line as invalid.
func (c *Cache) Invalidate(addr uint32) {
	if block := c.lookup(addr); block != nil {
		block.IsValid = false
	}
}

// ValidBlocks returns the number of valid lines.
func (c *Cache) ValidBlocks() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
