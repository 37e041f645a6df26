package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvpipe/emu"
	"github.com/sarchlab/rvpipe/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c      *cache.Cache
		memory *emu.Memory[uint32]
	)

	BeforeEach(func() {
		memory = emu.NewMemory[uint32](256)
		// Small cache for testing: 128B, 2-way, 16B lines -> 4 sets
		config := cache.Config{
			Size:          128,
			Associativity: 2,
			BlockSize:     16,
		}
		var err error
		c, err = cache.New(config, memory)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			Expect(memory.StoreWord(0x40, 0xDEADBEEF)).To(Succeed())

			result, err := c.Read(0x40)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hit).To(BeFalse())
			Expect(result.Data).To(Equal(uint32(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(BeZero())
		})

		It("should hit on cached data", func() {
			Expect(memory.StoreWord(0x40, 0xCAFEBABE)).To(Succeed())

			_, err := c.Read(0x40)
			Expect(err).NotTo(HaveOccurred())

			result, err := c.Read(0x40)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(0xCAFEBABE)))
			Expect(c.Stats().HitRate()).To(BeNumerically("~", 50.0))
		})

		It("should hit on different words in the same line", func() {
			Expect(memory.StoreWord(0x40, 0x11111111)).To(Succeed())
			Expect(memory.StoreWord(0x44, 0x22222222)).To(Succeed())

			_, _ = c.Read(0x40)

			result, err := c.Read(0x44)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(0x22222222)))
		})

		It("should surface backing store errors without counting", func() {
			_, err := c.Read(0x2)
			Expect(err).To(MatchError(emu.ErrAddress))

			_, err = c.Read(0x400)
			Expect(err).To(MatchError(emu.ErrAddress))

			Expect(c.Stats().Reads).To(BeZero())
		})
	})

	Describe("Write operations", func() {
		It("should write through to memory", func() {
			result, err := c.Write(0x80, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hit).To(BeFalse())

			v, err := memory.LoadWord(0x80)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(42)))
		})

		It("should allocate on a write miss", func() {
			_, err := c.Write(0x80, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Contains(0x8C)).To(BeTrue())

			result, err := c.Read(0x80)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(42)))
		})

		It("should update a cached line on a write hit", func() {
			_, _ = c.Read(0x80)

			result, err := c.Write(0x84, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hit).To(BeTrue())

			read, err := c.Read(0x84)
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Data).To(Equal(uint32(7)))
		})
	})

	Describe("Replacement", func() {
		It("should evict the least recently used way", func() {
			// 0x00, 0x40, 0x80 all map to set 0 with 4 sets of 16B.
			_, _ = c.Read(0x00)
			_, _ = c.Read(0x40)
			_, _ = c.Read(0x00)

			result, err := c.Read(0x80)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint32(0x40)))

			Expect(c.Contains(0x00)).To(BeTrue())
			Expect(c.Contains(0x40)).To(BeFalse())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})
	})

	Describe("Invalidate and Reset", func() {
		It("should invalidate a single line", func() {
			_, _ = c.Read(0x10)
			c.Invalidate(0x10)

			Expect(c.Contains(0x10)).To(BeFalse())
		})

		It("should clear everything on Reset", func() {
			_, _ = c.Read(0x10)
			_, _ = c.Read(0x20)
			Expect(c.ValidBlocks()).To(Equal(2))

			c.Reset()

			Expect(c.ValidBlocks()).To(BeZero())
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
		})
	})

	Describe("Config", func() {
		It("should accept the default L1D geometry", func() {
			Expect(cache.DefaultL1DConfig().Validate()).To(Succeed())
			Expect(cache.DefaultL1DConfig().NumSets()).To(Equal(32))
		})

		DescribeTable("invalid geometries",
			func(cfg cache.Config) {
				_, err := cache.New(cfg, memory)
				Expect(err).To(HaveOccurred())
			},
			Entry("zero block", cache.Config{Size: 64, Associativity: 1, BlockSize: 0}),
			Entry("unaligned block", cache.Config{Size: 60, Associativity: 1, BlockSize: 6}),
			Entry("zero ways", cache.Config{Size: 64, Associativity: 0, BlockSize: 16}),
			Entry("partial set", cache.Config{Size: 48, Associativity: 2, BlockSize: 16}),
		)
	})
})
