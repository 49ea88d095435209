package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mem"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

const maxCycles = 10000

// buildPipeline maps a one-page code segment at 0 and a one-page data
// segment at 0x1000, loads the program, and wires a pipeline.
func buildPipeline(
	program []uint32,
	options ...pipeline.PipelineOption,
) (*pipeline.Pipeline, *emu.RegisterBank) {
	phys := mem.NewPhysicalMemory(64*1024, 4*1024)
	vm, err := mem.NewVirtualMemory(phys, 4*1024)
	Expect(err).ToNot(HaveOccurred())
	Expect(vm.MapCode(0x0, 1)).To(Succeed())
	Expect(vm.MapData(0x1000, 1)).To(Succeed())
	phys.LoadProgram(0, program)

	regs := emu.NewRegisterBank()
	return pipeline.NewPipeline(vm, regs, 0, options...), regs
}

func regValue(regs *emu.RegisterBank, index int) int32 {
	value, err := regs.Read(index)
	Expect(err).ToNot(HaveOccurred())
	return value
}

var _ = Describe("Pipeline", func() {
	It("should run a straight-line program", func() {
		p, regs := buildPipeline([]uint32{
			insts.ADDI(1, 0, 5),
			insts.ADDI(2, 0, 7),
			insts.ADD(3, 1, 2),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(p.Halted()).To(BeTrue())
		Expect(regValue(regs, 3)).To(Equal(int32(12)))

		stats := p.Stats()
		Expect(stats.Instructions).To(Equal(uint64(3)))
		Expect(stats.Cycles).To(Equal(uint64(7)))
		Expect(stats.Stalls).To(Equal(uint64(0)))
	})

	It("should forward back-to-back dependent results", func() {
		p, regs := buildPipeline([]uint32{
			insts.ADDI(1, 0, 10),
			insts.ADDI(2, 1, 20),
			insts.ADD(3, 2, 1),
			insts.SUB(4, 3, 1),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 2)).To(Equal(int32(30)))
		Expect(regValue(regs, 3)).To(Equal(int32(40)))
		Expect(regValue(regs, 4)).To(Equal(int32(30)))
		Expect(p.Stats().Stalls).To(Equal(uint64(0)))
	})

	It("should stall exactly one cycle on a load-use dependency", func() {
		p, regs := buildPipeline([]uint32{
			insts.LUI(1, 1),
			insts.ADDI(2, 0, 42),
			insts.SW(2, 1, 0),
			insts.LW(3, 1, 0),
			insts.ADD(4, 3, 0),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 3)).To(Equal(int32(42)))
		Expect(regValue(regs, 4)).To(Equal(int32(42)))
		Expect(p.Stats().Stalls).To(Equal(uint64(1)))
	})

	It("should not stall a load followed by an independent consumer", func() {
		p, regs := buildPipeline([]uint32{
			insts.LUI(1, 1),
			insts.ADDI(2, 0, 42),
			insts.SW(2, 1, 0),
			insts.LW(3, 1, 0),
			insts.ADDI(5, 0, 1),
			insts.ADD(4, 3, 0),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 4)).To(Equal(int32(42)))
		Expect(p.Stats().Stalls).To(Equal(uint64(0)))
	})

	It("should flush the shadow of a taken branch", func() {
		p, regs := buildPipeline([]uint32{
			insts.ADDI(1, 0, 1),
			insts.BNE(1, 0, 12),
			insts.ADDI(2, 0, 99),
			insts.ADDI(3, 0, 99),
			insts.ADDI(4, 0, 7),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 2)).To(Equal(int32(0)))
		Expect(regValue(regs, 3)).To(Equal(int32(0)))
		Expect(regValue(regs, 4)).To(Equal(int32(7)))

		stats := p.Stats()
		Expect(stats.Flushes).To(Equal(uint64(1)))
		Expect(stats.Instructions).To(Equal(uint64(3)))
	})

	It("should fall through a not-taken branch without flushing", func() {
		p, regs := buildPipeline([]uint32{
			insts.BNE(0, 0, 8),
			insts.ADDI(1, 0, 3),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 1)).To(Equal(int32(3)))
		Expect(p.Stats().Flushes).To(Equal(uint64(0)))
	})

	It("should resume fetching when a branch jumps past the halt word", func() {
		p, regs := buildPipeline([]uint32{
			insts.BEQ(0, 0, 8),
			insts.EBREAK(),
			insts.ADDI(1, 0, 5),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(p.Halted()).To(BeTrue())
		Expect(regValue(regs, 1)).To(Equal(int32(5)))
	})

	It("should link and jump for JAL", func() {
		p, regs := buildPipeline([]uint32{
			insts.JAL(1, 12),
			insts.ADDI(2, 0, 99),
			insts.ADDI(3, 0, 99),
			insts.ADDI(4, 0, 1),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 1)).To(Equal(int32(4)))
		Expect(regValue(regs, 2)).To(Equal(int32(0)))
		Expect(regValue(regs, 4)).To(Equal(int32(1)))
	})

	It("should return through JALR", func() {
		p, regs := buildPipeline([]uint32{
			insts.ADDI(5, 0, 16),
			insts.JALR(1, 5, 0),
			insts.ADDI(2, 0, 99),
			insts.ADDI(3, 0, 99),
			insts.ADDI(4, 0, 2),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 1)).To(Equal(int32(8)))
		Expect(regValue(regs, 2)).To(Equal(int32(0)))
		Expect(regValue(regs, 4)).To(Equal(int32(2)))
	})

	It("should execute a counted loop", func() {
		// x1 counts 5 down to 0; x2 accumulates.
		p, regs := buildPipeline([]uint32{
			insts.ADDI(1, 0, 5),
			insts.ADD(2, 2, 1),
			insts.ADDI(1, 1, -1),
			insts.BNE(1, 0, -8),
			insts.EBREAK(),
		})

		Expect(p.Run(maxCycles)).To(Succeed())

		Expect(regValue(regs, 2)).To(Equal(int32(15)))
		Expect(p.Stats().Flushes).To(Equal(uint64(4)))
	})

	It("should halt on a fetch from an unmapped page", func() {
		p, _ := buildPipeline([]uint32{
			insts.ADDI(5, 0, 0x100),
			insts.SLLI(5, 5, 8),
			insts.JALR(0, 5, 0),
			insts.EBREAK(),
		})

		err := p.Run(maxCycles)

		Expect(err).To(HaveOccurred())
		Expect(p.Halted()).To(BeTrue())
	})

	It("should halt on a store to a code page", func() {
		p, _ := buildPipeline([]uint32{
			insts.ADDI(1, 0, 42),
			insts.SW(1, 0, 0),
			insts.EBREAK(),
		})

		err := p.Run(maxCycles)

		Expect(err).To(HaveOccurred())
		Expect(p.Halted()).To(BeTrue())
	})

	Context("with a data cache", func() {
		var dcache *mem.Cache

		newCachedPipeline := func(program []uint32) (*pipeline.Pipeline, *emu.RegisterBank) {
			phys := mem.NewPhysicalMemory(64*1024, 4*1024)
			vm, err := mem.NewVirtualMemory(phys, 4*1024)
			Expect(err).ToNot(HaveOccurred())
			Expect(vm.MapCode(0x0, 1)).To(Succeed())
			Expect(vm.MapData(0x1000, 1)).To(Succeed())
			phys.LoadProgram(0, program)

			dcache, err = mem.NewCache(mem.DefaultCacheConfig(), phys)
			Expect(err).ToNot(HaveOccurred())
			regs := emu.NewRegisterBank()
			p := pipeline.NewPipeline(vm, regs, 0, pipeline.WithDCache(dcache))
			return p, regs
		}

		It("should produce the same results as the uncached path", func() {
			program := []uint32{
				insts.LUI(1, 1),
				insts.ADDI(2, 0, 42),
				insts.SW(2, 1, 0),
				insts.LW(3, 1, 0),
				insts.ADD(4, 3, 2),
				insts.EBREAK(),
			}

			cached, cachedRegs := newCachedPipeline(program)
			Expect(cached.Run(maxCycles)).To(Succeed())

			uncached, uncachedRegs := buildPipeline(program)
			Expect(uncached.Run(maxCycles)).To(Succeed())

			Expect(cachedRegs.SaveContext()).To(Equal(uncachedRegs.SaveContext()))
		})

		It("should stall for the miss penalty and hit afterwards", func() {
			program := []uint32{
				insts.LUI(1, 1),
				insts.ADDI(2, 0, 7),
				insts.SW(2, 1, 0),
				insts.LW(3, 1, 0),
				insts.LW(4, 1, 0),
				insts.EBREAK(),
			}

			p, regs := newCachedPipeline(program)
			Expect(p.Run(maxCycles)).To(Succeed())

			Expect(regValue(regs, 3)).To(Equal(int32(7)))
			Expect(regValue(regs, 4)).To(Equal(int32(7)))

			stats := dcache.Stats()
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(2)))
			Expect(p.Stats().Stalls).To(BeNumerically(">", 0))
		})
	})
})
