package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/mem"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// PipelinedCore wraps the five-stage pipeline behind the Core
// interface.
type PipelinedCore struct {
	pipeline *pipeline.Pipeline
	vm       *mem.VirtualMemory
	regs     *emu.RegisterBank
	startPC  uint32
	options  []pipeline.PipelineOption
}

// NewPipelinedCore creates a pipelined core starting at startPC.
// Options are forwarded to the underlying pipeline.
func NewPipelinedCore(
	vm *mem.VirtualMemory,
	regs *emu.RegisterBank,
	startPC uint32,
	options ...pipeline.PipelineOption,
) *PipelinedCore {
	return &PipelinedCore{
		pipeline: pipeline.NewPipeline(vm, regs, startPC, options...),
		vm:       vm,
		regs:     regs,
		startPC:  startPC,
		options:  options,
	}
}

// PC returns the current fetch PC.
func (c *PipelinedCore) PC() uint32 {
	return c.pipeline.PC()
}

// SetPC rebuilds the pipeline to fetch from pc with empty stages.
// In-flight instructions and counters are discarded.
func (c *PipelinedCore) SetPC(pc uint32) {
	c.pipeline = pipeline.NewPipeline(c.vm, c.regs, pc, c.options...)
}

// Halted reports whether the pipeline has drained after the halt.
func (c *PipelinedCore) Halted() bool {
	return c.pipeline.Halted()
}

// Stats returns the pipeline counters in the shared form.
func (c *PipelinedCore) Stats() Statistics {
	ps := c.pipeline.Stats()
	return Statistics{
		Cycles:        ps.Cycles,
		Instructions:  ps.Instructions,
		Stalls:        ps.Stalls,
		Flushes:       ps.Flushes,
		Branches:      ps.Branches,
		TakenBranches: ps.TakenBranches,
	}
}

// Registers returns the core's register bank.
func (c *PipelinedCore) Registers() *emu.RegisterBank {
	return c.regs
}

// DCache returns the data cache, or nil when the path is uncached.
func (c *PipelinedCore) DCache() *mem.Cache {
	return c.pipeline.DCache()
}

// Tick advances the pipeline one cycle.
func (c *PipelinedCore) Tick() error {
	return c.pipeline.Tick()
}

// Run ticks until the core halts or maxCycles elapse.
func (c *PipelinedCore) Run(maxCycles uint64) error {
	return runLoop(c, maxCycles)
}
