package pipeline

import (
	"github.com/sarchlab/rvpipe/timing/cache"
)

// CachedMemoryStage handles memory reads and writes through the L1 data
// cache. The cache is write-through, so data memory stays current.
type CachedMemoryStage struct {
	cache *cache.Cache
}

// NewCachedMemoryStage creates a new cached memory stage.
func NewCachedMemoryStage(dcache *cache.Cache) *CachedMemoryStage {
	return &CachedMemoryStage{
		cache: dcache,
	}
}

// Access performs the load or store of the EX/MEM instruction through the
// cache.
func (s *CachedMemoryStage) Access(exmem *EXMEMRegister) (MEMWBRegister, error) {
	return access(exmem, s.load, s.store)
}

func (s *CachedMemoryStage) load(addr uint32) (uint32, error) {
	result, err := s.cache.Read(addr)
	return result.Data, err
}

func (s *CachedMemoryStage) store(addr, value uint32) error {
	_, err := s.cache.Write(addr, value)
	return err
}

// Cache returns the data cache.
func (s *CachedMemoryStage) Cache() *cache.Cache {
	return s.cache
}
