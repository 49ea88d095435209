package benchmarks

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/mem"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// Model names a core model the harness can run.
type Model string

const (
	ModelSingleCycle Model = "single-cycle"
	ModelMultiCycle  Model = "multi-cycle"
	ModelPipelined   Model = "pipelined"
)

// Result holds the timing results for one benchmark on one model.
type Result struct {
	Benchmark    string
	Model        Model
	Cycles       uint64
	Instructions uint64
	CPI          float64
	Stalls       uint64
	Flushes      uint64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// MemorySize is the physical memory capacity in bytes.
	MemorySize uint32

	// PageSize is the page and frame size in bytes.
	PageSize uint32

	// MaxCycles bounds each run.
	MaxCycles uint64

	// DCache, when set, routes the pipelined model's loads and stores
	// through a data cache with this configuration.
	DCache *mem.CacheConfig
}

// DefaultHarnessConfig returns the configuration used by the tests.
func DefaultHarnessConfig() HarnessConfig {
	return HarnessConfig{
		MemorySize: 64 * 1024,
		PageSize:   4 * 1024,
		MaxCycles:  1_000_000,
	}
}

// Harness runs benchmarks across the core models.
type Harness struct {
	config HarnessConfig
}

// NewHarness creates a harness.
func NewHarness(config HarnessConfig) *Harness {
	return &Harness{config: config}
}

// Run executes one benchmark on one model and validates the expected
// register values.
func (h *Harness) Run(b Benchmark, model Model) (Result, error) {
	c, err := h.buildCore(b, model)
	if err != nil {
		return Result{}, err
	}

	if err := c.Run(h.config.MaxCycles); err != nil {
		return Result{}, fmt.Errorf("benchmark %s on %s: %w", b.Name, model, err)
	}
	if !c.Halted() {
		return Result{}, fmt.Errorf("benchmark %s on %s hit the cycle limit", b.Name, model)
	}

	for index, want := range b.ExpectedRegs {
		got, err := c.Registers().Read(index)
		if err != nil {
			return Result{}, err
		}
		if got != want {
			return Result{}, fmt.Errorf(
				"benchmark %s on %s: x%d = %d, want %d",
				b.Name, model, index, got, want)
		}
	}

	stats := c.Stats()
	return Result{
		Benchmark:    b.Name,
		Model:        model,
		Cycles:       stats.Cycles,
		Instructions: stats.Instructions,
		CPI:          stats.CPI(),
		Stalls:       stats.Stalls,
		Flushes:      stats.Flushes,
	}, nil
}

// RunAll executes every benchmark on every model.
func (h *Harness) RunAll(benchmarks []Benchmark) ([]Result, error) {
	models := []Model{ModelSingleCycle, ModelMultiCycle, ModelPipelined}

	results := make([]Result, 0, len(benchmarks)*len(models))
	for _, b := range benchmarks {
		for _, model := range models {
			result, err := h.Run(b, model)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}
	return results, nil
}

func (h *Harness) buildCore(b Benchmark, model Model) (core.Core, error) {
	phys := mem.NewPhysicalMemory(h.config.MemorySize, h.config.PageSize)
	vm, err := mem.NewVirtualMemory(phys, h.config.PageSize)
	if err != nil {
		return nil, err
	}
	if err := vm.MapCode(0x0, 1); err != nil {
		return nil, err
	}
	if err := vm.MapData(0x1000, 1); err != nil {
		return nil, err
	}
	phys.LoadProgram(0, b.Program)

	regs := emu.NewRegisterBank()
	if b.Setup != nil {
		b.Setup(regs)
	}

	switch model {
	case ModelSingleCycle:
		return core.NewSingleCycleCore(vm, regs, 0), nil
	case ModelMultiCycle:
		return core.NewMultiCycleCore(vm, regs, 0), nil
	case ModelPipelined:
		if h.config.DCache != nil {
			dcache, err := mem.NewCache(*h.config.DCache, phys)
			if err != nil {
				return nil, err
			}
			return core.NewPipelinedCore(vm, regs, 0,
				pipeline.WithDCache(dcache)), nil
		}
		return core.NewPipelinedCore(vm, regs, 0), nil
	default:
		return nil, fmt.Errorf("unknown model %q", model)
	}
}

// PrintResults writes a human-readable results table.
func PrintResults(w io.Writer, results []Result) {
	fmt.Fprintf(w, "%-24s %-14s %10s %8s %6s %7s %7s\n",
		"Benchmark", "Model", "Cycles", "Insts", "CPI", "Stalls", "Flushes")
	for _, r := range results {
		fmt.Fprintf(w, "%-24s %-14s %10d %8d %6.2f %7d %7d\n",
			r.Benchmark, r.Model, r.Cycles, r.Instructions, r.CPI,
			r.Stalls, r.Flushes)
	}
}

// WriteCSV writes results as CSV for external analysis.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)

	header := []string{
		"benchmark", "model", "cycles", "instructions", "cpi",
		"stalls", "flushes",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		record := []string{
			r.Benchmark,
			string(r.Model),
			strconv.FormatUint(r.Cycles, 10),
			strconv.FormatUint(r.Instructions, 10),
			strconv.FormatFloat(r.CPI, 'f', 4, 64),
			strconv.FormatUint(r.Stalls, 10),
			strconv.FormatUint(r.Flushes, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
