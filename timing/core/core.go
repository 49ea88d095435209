// Package core provides processor models at three timing fidelities:
// single-cycle, multi-cycle, and pipelined. All three execute the same
// instruction set and differ only in how they spend cycles.
package core

import (
	"github.com/sarchlab/rv32sim/emu"
)

// Statistics tracks execution counters shared by all core models.
type Statistics struct {
	Cycles        uint64
	Instructions  uint64
	Stalls        uint64
	Flushes       uint64
	Branches      uint64
	TakenBranches uint64
}

// CPI returns cycles per retired instruction.
func (s *Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// BranchTakenRate returns the fraction of branches that were taken.
func (s *Statistics) BranchTakenRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.TakenBranches) / float64(s.Branches)
}

// Core is a processor model. Tick advances one cycle; how much work a
// cycle does depends on the model.
type Core interface {
	Tick() error
	Run(maxCycles uint64) error
	Halted() bool
	PC() uint32
	SetPC(pc uint32)
	Stats() Statistics
	Registers() *emu.RegisterBank
}

// runLoop ticks a core until it halts or maxCycles elapse.
func runLoop(c Core, maxCycles uint64) error {
	for i := uint64(0); i < maxCycles && !c.Halted(); i++ {
		if err := c.Tick(); err != nil {
			return err
		}
	}
	return nil
}
