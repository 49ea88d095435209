package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mem"
)

// Stage names the state of the multi-cycle core's stage machine.
type Stage int

const (
	StageFetch Stage = iota
	StageDecode
	StageExecute
	StageMemory
	StageWriteback
)

// MultiCycleCore executes one stage per cycle, taking exactly five
// cycles per instruction.
type MultiCycleCore struct {
	pc     uint32
	halted bool
	stage  Stage

	vm      *mem.VirtualMemory
	regs    *emu.RegisterBank
	decoder *insts.Decoder
	control *emu.ControlUnit
	alu     *emu.ALU

	// Latches between stages.
	word     uint32
	inst     *insts.Instruction
	ctrl     emu.ControlSignals
	rs1Val   int32
	rs2Val   int32
	aluValue int32
	memData  int32
	nextPC   uint32

	stats Statistics
}

// NewMultiCycleCore creates a multi-cycle core starting at startPC.
func NewMultiCycleCore(
	vm *mem.VirtualMemory,
	regs *emu.RegisterBank,
	startPC uint32,
) *MultiCycleCore {
	return &MultiCycleCore{
		pc:      startPC,
		vm:      vm,
		regs:    regs,
		decoder: insts.NewDecoder(),
		control: emu.NewControlUnit(),
		alu:     emu.NewALU(),
	}
}

// PC returns the current program counter.
func (c *MultiCycleCore) PC() uint32 {
	return c.pc
}

// SetPC repoints the program counter.
func (c *MultiCycleCore) SetPC(pc uint32) {
	c.pc = pc
}

// Halted reports whether the core has stopped.
func (c *MultiCycleCore) Halted() bool {
	return c.halted
}

// Stats returns a copy of the accumulated statistics.
func (c *MultiCycleCore) Stats() Statistics {
	return c.stats
}

// Registers returns the core's register bank.
func (c *MultiCycleCore) Registers() *emu.RegisterBank {
	return c.regs
}

// CurrentStage returns the stage the next Tick will run.
func (c *MultiCycleCore) CurrentStage() Stage {
	return c.stage
}

// Tick runs the current stage and advances the stage machine.
func (c *MultiCycleCore) Tick() error {
	if c.halted {
		return nil
	}
	c.stats.Cycles++

	var err error
	switch c.stage {
	case StageFetch:
		err = c.fetch()
	case StageDecode:
		err = c.decode()
	case StageExecute:
		c.execute()
	case StageMemory:
		err = c.memory()
	case StageWriteback:
		err = c.writeback()
	}
	if err != nil {
		c.halted = true
		return err
	}
	if !c.halted {
		c.stage = (c.stage + 1) % 5
	}
	return nil
}

func (c *MultiCycleCore) fetch() error {
	word, err := c.vm.FetchWord(c.pc)
	if err != nil {
		return err
	}
	if uint32(word) == insts.HaltWord {
		c.halted = true
		return nil
	}
	c.word = uint32(word)
	return nil
}

func (c *MultiCycleCore) decode() error {
	c.inst = c.decoder.Decode(c.word)

	ctrl, err := c.control.Decode(c.inst)
	if err != nil {
		return err
	}
	c.ctrl = ctrl

	c.rs1Val, err = c.regs.Read(int(c.inst.Rs1))
	if err != nil {
		return err
	}
	c.rs2Val, err = c.regs.Read(int(c.inst.Rs2))
	return err
}

func (c *MultiCycleCore) execute() {
	opA := c.rs1Val
	if c.ctrl.PCIsOperandA {
		opA = int32(c.pc)
	}
	opB := c.rs2Val
	if c.ctrl.ALUSrcImm {
		opB = c.inst.Imm
	}
	c.aluValue = c.alu.Execute(opA, opB, c.ctrl.ALUOp).Value

	c.nextPC = c.pc + 4
	if c.ctrl.Branch {
		c.stats.Branches++
		if c.alu.Compare(c.rs1Val, c.rs2Val, c.ctrl.BranchCond) {
			c.stats.TakenBranches++
			c.nextPC = c.pc + uint32(c.inst.Imm)
		}
	}
	if c.ctrl.Jump {
		if c.inst.Opcode == insts.OpcodeJALR {
			c.nextPC = uint32(c.aluValue) &^ 1
		} else {
			c.nextPC = c.pc + uint32(c.inst.Imm)
		}
	}
}

func (c *MultiCycleCore) memory() error {
	switch {
	case c.ctrl.MemRead:
		data, err := c.vm.ReadWord(uint32(c.aluValue))
		if err != nil {
			return err
		}
		c.memData = data
	case c.ctrl.MemWrite:
		return c.vm.WriteWord(uint32(c.aluValue), c.rs2Val)
	}
	return nil
}

func (c *MultiCycleCore) writeback() error {
	if c.ctrl.RegWrite {
		value := c.aluValue
		if c.ctrl.MemToReg {
			value = c.memData
		}
		if c.ctrl.LinkToReg {
			value = int32(c.pc + 4)
		}
		if err := c.regs.Write(int(c.inst.Rd), value); err != nil {
			return err
		}
	}

	c.pc = c.nextPC
	c.stats.Instructions++
	return nil
}

// Run ticks until the core halts or maxCycles elapse.
func (c *MultiCycleCore) Run(maxCycles uint64) error {
	return runLoop(c, maxCycles)
}
