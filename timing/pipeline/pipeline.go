package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mem"
)

// Statistics tracks cycle-level pipeline behavior.
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

// Pipeline is a classic five-stage in-order pipeline with forwarding,
// a one-cycle load-use stall, and flush on taken branches.
type Pipeline struct {
	pc   uint32
	vm   *mem.VirtualMemory
	regs *emu.RegisterBank

	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage
	hazardUnit     *HazardUnit

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// memInFlight tracks a multi-cycle memory access already issued for
	// the instruction sitting in EXMEM; memWait counts remaining cycles.
	memInFlight bool
	memWait     uint64
	memData     int32

	fetchStopped bool
	halted       bool

	stats Statistics
}

// PipelineOption configures a Pipeline at construction.
type PipelineOption func(*Pipeline)

// WithDCache routes the pipeline's loads and stores through a data
// cache.
func WithDCache(dcache *mem.Cache) PipelineOption {
	return func(p *Pipeline) {
		p.memoryStage.SetDCache(dcache)
	}
}

// NewPipeline creates a pipeline executing from the given virtual
// memory view and register bank, starting at startPC.
func NewPipeline(
	vm *mem.VirtualMemory,
	regs *emu.RegisterBank,
	startPC uint32,
	options ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		pc:             startPC,
		vm:             vm,
		regs:           regs,
		fetchStage:     NewFetchStage(vm),
		decodeStage:    NewDecodeStage(regs),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(vm),
		writebackStage: NewWritebackStage(regs),
		hazardUnit:     NewHazardUnit(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// PC returns the current fetch PC.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// Halted reports whether the pipeline has fully drained after the halt
// instruction was fetched, or stopped on a fault.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Stats returns a copy of the accumulated statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// DCache returns the data cache, or nil when the path is uncached.
func (p *Pipeline) DCache() *mem.Cache {
	return p.memoryStage.DCache()
}

// Tick advances the pipeline by one cycle. Stages run in reverse order
// so each reads its upstream register before it is overwritten.
func (p *Pipeline) Tick() error {
	if p.halted {
		return nil
	}
	p.stats.Cycles++

	hazard := p.hazardUnit.Detect(&p.idex, &p.exmem, &p.memwb)

	// Writeback.
	if err := p.writebackStage.Writeback(&p.memwb); err != nil {
		p.halted = true
		return err
	}
	if p.memwb.Valid {
		p.stats.Instructions++
	}

	// Memory. A multi-cycle access holds everything upstream until it
	// completes.
	var nextMEMWB MEMWBRegister
	memStall := false
	if p.exmem.Valid {
		if !p.memInFlight {
			data, latency, err := p.memoryStage.Access(&p.exmem)
			if err != nil {
				p.halted = true
				return err
			}
			if latency < 1 {
				latency = 1
			}
			p.memData = data
			p.memInFlight = true
			p.memWait = latency - 1
		} else if p.memWait > 0 {
			p.memWait--
		}
		if p.memWait > 0 {
			memStall = true
			p.stats.Stalls++
		} else {
			nextMEMWB = MEMWBRegister{
				Valid:     true,
				PC:        p.exmem.PC,
				Inst:      p.exmem.Inst,
				ALUResult: p.exmem.ALUResult,
				MemData:   p.memData,
				Rd:        p.exmem.Rd,
				RegWrite:  p.exmem.RegWrite,
				MemToReg:  p.exmem.MemToReg,
			}
			p.memInFlight = false
		}
	}

	// Execute.
	var nextEXMEM EXMEMRegister
	if !memStall && !hazard.Stall && p.idex.Valid {
		operandA := p.forwardedValue(hazard.ForwardA, p.idex.Rs1Value)
		operandB := p.forwardedValue(hazard.ForwardB, p.idex.Rs2Value)
		p.executeStage.Execute(&p.idex, &nextEXMEM, operandA, operandB)
		if p.idex.Ctrl.Branch {
			p.stats.Branches++
			if nextEXMEM.BranchTaken {
				p.stats.TakenBranches++
			}
		}
	}
	flush := p.hazardUnit.NeedsFlush(&nextEXMEM)

	// Fetch and decode.
	var nextIFID IFIDRegister
	var nextIDEX IDEXRegister
	if memStall || hazard.Stall {
		nextIFID = p.ifid
		nextIDEX = p.idex
		if hazard.Stall && !memStall {
			p.stats.Stalls++
		}
	} else {
		if p.ifid.Valid {
			if err := p.decodeStage.Decode(&p.ifid, &nextIDEX); err != nil {
				p.halted = true
				return err
			}
		}
		if !p.fetchStopped {
			word, err := p.fetchStage.Fetch(p.pc)
			if err != nil {
				p.halted = true
				return err
			}
			if word == insts.HaltWord {
				p.fetchStopped = true
			} else {
				nextIFID = IFIDRegister{Valid: true, PC: p.pc, Word: word}
				p.pc += 4
			}
		}
	}

	// A taken branch squashes the two younger instructions and
	// redirects fetch, even past a halt word skipped over by the
	// branch.
	if flush {
		nextIFID.Clear()
		nextIDEX.Clear()
		p.pc = nextEXMEM.BranchTarget
		p.fetchStopped = false
		p.stats.Flushes++
	}

	// Latch.
	if memStall {
		p.memwb = MEMWBRegister{}
	} else {
		p.memwb = nextMEMWB
		p.exmem = nextEXMEM
		p.idex = nextIDEX
		p.ifid = nextIFID
	}

	if p.fetchStopped &&
		!p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid {
		p.halted = true
	}
	return nil
}

func (p *Pipeline) forwardedValue(src ForwardSource, regValue int32) int32 {
	switch src {
	case ForwardFromEXMEM:
		return p.exmem.ALUResult
	case ForwardFromMEMWB:
		if p.memwb.MemToReg {
			return p.memwb.MemData
		}
		return p.memwb.ALUResult
	default:
		return regValue
	}
}

// Run ticks the pipeline until it halts or maxCycles elapse.
func (p *Pipeline) Run(maxCycles uint64) error {
	for i := uint64(0); i < maxCycles && !p.halted; i++ {
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return nil
}
