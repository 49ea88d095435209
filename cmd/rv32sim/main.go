// Package main provides the entry point for rv32sim, an instructional
// RV32IM simulator with single-cycle, multi-cycle, and pipelined core
// models.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/mem"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/latency"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

var (
	model      = flag.String("model", "all", "Core model: single, multi, pipeline, or all")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	cached     = flag.Bool("cached", false, "Route the pipelined model through a data cache")
	maxCycles  = flag.Uint64("max-cycles", 1_000_000, "Cycle limit per run")
)

const (
	memorySize = 1 << 20
	pageSize   = 4096
)

// system is one core's private machine state.
type system struct {
	phys    *mem.PhysicalMemory
	vm      *mem.VirtualMemory
	regs    *emu.RegisterBank
	startPC uint32
}

func main() {
	flag.Parse()

	timingConfig := latency.DefaultConfig()
	if *configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
	}

	// Run the built-in demo program unless an ELF binary is given.
	build := demoSystem
	if flag.NArg() >= 1 {
		path := flag.Arg(0)
		build = func() *system { return elfSystem(path) }
	}

	switch *model {
	case "single":
		s := build()
		runModel("single-cycle", s, newSingle(s))
	case "multi":
		s := build()
		runModel("multi-cycle", s, newMulti(s))
	case "pipeline":
		s := build()
		runModel("pipelined", s, newPipelined(s, timingConfig))
	case "all":
		s := build()
		runModel("single-cycle", s, newSingle(s))
		s = build()
		runModel("multi-cycle", s, newMulti(s))
		s = build()
		runModel("pipelined", s, newPipelined(s, timingConfig))
	default:
		fmt.Fprintf(os.Stderr, "Unknown model %q\n", *model)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

// demoProgram sums the words 10 down to 1 into memory, reads the total
// back, and scales it. It exercises arithmetic, loads, stores, and
// branches.
func demoProgram() []uint32 {
	return []uint32{
		insts.LUI(1, 1),      // x1 = data segment base
		insts.ADDI(2, 0, 10), // x2 = loop counter
		insts.ADDI(3, 0, 0),  // x3 = running sum
		insts.ADD(3, 3, 2),   // loop: sum += counter
		insts.ADDI(2, 2, -1), //       counter--
		insts.BNE(2, 0, -8),  //       repeat while counter != 0
		insts.SW(3, 1, 0),    // store the sum
		insts.LW(4, 1, 0),    // load it back
		insts.ADDI(5, 0, 3),  // x5 = scale factor
		insts.MUL(6, 4, 5),   // x6 = sum * 3
		insts.EBREAK(),
	}
}

func demoSystem() *system {
	s := emptySystem()
	if err := s.vm.MapCode(0x0, 1); err != nil {
		fatalf("Error mapping code segment: %v", err)
	}
	if err := s.vm.MapData(0x1000, 1); err != nil {
		fatalf("Error mapping data segment: %v", err)
	}
	s.phys.LoadProgram(0, demoProgram())
	return s
}

func elfSystem(path string) *system {
	prog, err := loader.Load(path)
	if err != nil {
		fatalf("Error loading program: %v", err)
	}

	s := emptySystem()
	if err := prog.Install(s.vm, s.phys); err != nil {
		fatalf("Error installing program: %v", err)
	}
	s.startPC = prog.EntryPoint
	return s
}

func emptySystem() *system {
	phys := mem.NewPhysicalMemory(memorySize, pageSize)
	vm, err := mem.NewVirtualMemory(phys, pageSize)
	if err != nil {
		fatalf("Error creating address space: %v", err)
	}
	return &system{phys: phys, vm: vm, regs: emu.NewRegisterBank()}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func newSingle(s *system) core.Core {
	return core.NewSingleCycleCore(s.vm, s.regs, s.startPC)
}

func newMulti(s *system) core.Core {
	return core.NewMultiCycleCore(s.vm, s.regs, s.startPC)
}

func newPipelined(s *system, timing latency.Config) core.Core {
	if !*cached {
		return core.NewPipelinedCore(s.vm, s.regs, s.startPC)
	}

	cacheConfig := mem.DefaultCacheConfig()
	cacheConfig.HitLatency = timing.CacheHitLatency
	cacheConfig.MissLatency = timing.MissLatency()
	dcache, err := mem.NewCache(cacheConfig, s.phys)
	if err != nil {
		fatalf("Error building data cache: %v", err)
	}

	return core.NewPipelinedCore(s.vm, s.regs, s.startPC, pipeline.WithDCache(dcache))
}

func runModel(name string, s *system, c core.Core) {
	if err := c.Run(*maxCycles); err != nil {
		fatalf("Error running %s model: %v", name, err)
	}
	if !c.Halted() {
		fatalf("%s model hit the cycle limit", name)
	}

	stats := c.Stats()

	fmt.Printf("\n")
	fmt.Printf("Model: %s\n", name)
	fmt.Printf("Total Instructions: %d\n", stats.Instructions)
	fmt.Printf("Total Cycles: %d\n", stats.Cycles)
	fmt.Printf("CPI: %.2f\n", stats.CPI())
	if stats.Branches > 0 {
		fmt.Printf("Branches: %d (%.0f%% taken)\n",
			stats.Branches, 100.0*stats.BranchTakenRate())
	}
	if stats.Stalls > 0 || stats.Flushes > 0 {
		fmt.Printf("Pipeline Events:\n")
		fmt.Printf("  Stalls:  %d\n", stats.Stalls)
		fmt.Printf("  Flushes: %d\n", stats.Flushes)
	}

	ptStats := s.vm.PageTable().Stats()
	fmt.Printf("Page Table:\n")
	fmt.Printf("  Lookups: %d\n", ptStats.Lookups)
	fmt.Printf("  Hits:    %d (%.1f%%)\n", ptStats.Hits, 100.0*ptStats.HitRate())

	if pc, ok := c.(*core.PipelinedCore); ok && pc.DCache() != nil {
		cacheStats := pc.DCache().Stats()
		fmt.Printf("Data Cache:\n")
		fmt.Printf("  Hits:   %d\n", cacheStats.Hits)
		fmt.Printf("  Misses: %d\n", cacheStats.Misses)
		fmt.Printf("  Hit rate: %.1f%%\n", 100.0*cacheStats.HitRate())
	}

	result, err := c.Registers().Read(6)
	if err == nil {
		fmt.Printf("Result (x6): %d\n", result)
	}
}
