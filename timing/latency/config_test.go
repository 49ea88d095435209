package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/timing/latency"
)

var _ = Describe("Config", func() {
	It("should provide usable defaults", func() {
		config := latency.DefaultConfig()

		Expect(config.Validate()).To(Succeed())
		Expect(config.MissLatency()).To(Equal(uint64(10)))
	})

	It("should reject a zero hit latency", func() {
		config := latency.Config{CacheMissPenalty: 9, MemoryLatency: 10}

		Expect(config.Validate()).To(HaveOccurred())
	})

	It("should reject a zero memory latency", func() {
		config := latency.Config{CacheHitLatency: 1, CacheMissPenalty: 9}

		Expect(config.Validate()).To(HaveOccurred())
	})

	Describe("AMAT", func() {
		It("should equal the hit latency at a perfect hit rate", func() {
			config := latency.DefaultConfig()

			Expect(config.AMAT(1.0)).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should equal hit plus penalty at a zero hit rate", func() {
			config := latency.DefaultConfig()

			Expect(config.AMAT(0.0)).To(BeNumerically("~", 10.0, 1e-9))
		})

		It("should interpolate between the two", func() {
			config := latency.DefaultConfig()

			Expect(config.AMAT(0.9)).To(BeNumerically("~", 1.9, 1e-9))
		})
	})

	Describe("LoadConfig", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		writeFile := func(content string) string {
			path := filepath.Join(dir, "timing.json")
			Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
			return path
		}

		It("should load a full configuration", func() {
			path := writeFile(`{
				"cache_hit_latency": 2,
				"cache_miss_penalty": 20,
				"memory_latency": 25
			}`)

			config, err := latency.LoadConfig(path)

			Expect(err).ToNot(HaveOccurred())
			Expect(config.CacheHitLatency).To(Equal(uint64(2)))
			Expect(config.CacheMissPenalty).To(Equal(uint64(20)))
			Expect(config.MemoryLatency).To(Equal(uint64(25)))
		})

		It("should keep defaults for omitted fields", func() {
			path := writeFile(`{"cache_miss_penalty": 50}`)

			config, err := latency.LoadConfig(path)

			Expect(err).ToNot(HaveOccurred())
			Expect(config.CacheHitLatency).To(Equal(uint64(1)))
			Expect(config.CacheMissPenalty).To(Equal(uint64(50)))
		})

		It("should fail on a missing file", func() {
			_, err := latency.LoadConfig(filepath.Join(dir, "nope.json"))

			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed JSON", func() {
			path := writeFile(`{"cache_hit_latency": `)

			_, err := latency.LoadConfig(path)

			Expect(err).To(HaveOccurred())
		})

		It("should fail on an invalid loaded value", func() {
			path := writeFile(`{"cache_hit_latency": 0}`)

			_, err := latency.LoadConfig(path)

			Expect(err).To(HaveOccurred())
		})
	})
})
