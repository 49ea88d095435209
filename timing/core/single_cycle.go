package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mem"
)

// SingleCycleCore executes one full instruction per cycle.
type SingleCycleCore struct {
	pc     uint32
	halted bool

	vm      *mem.VirtualMemory
	regs    *emu.RegisterBank
	decoder *insts.Decoder
	control *emu.ControlUnit
	alu     *emu.ALU

	stats Statistics
}

// NewSingleCycleCore creates a single-cycle core starting at startPC.
func NewSingleCycleCore(
	vm *mem.VirtualMemory,
	regs *emu.RegisterBank,
	startPC uint32,
) *SingleCycleCore {
	return &SingleCycleCore{
		pc:      startPC,
		vm:      vm,
		regs:    regs,
		decoder: insts.NewDecoder(),
		control: emu.NewControlUnit(),
		alu:     emu.NewALU(),
	}
}

// PC returns the current program counter.
func (c *SingleCycleCore) PC() uint32 {
	return c.pc
}

// SetPC repoints the program counter.
func (c *SingleCycleCore) SetPC(pc uint32) {
	c.pc = pc
}

// Halted reports whether the core has stopped.
func (c *SingleCycleCore) Halted() bool {
	return c.halted
}

// Stats returns a copy of the accumulated statistics.
func (c *SingleCycleCore) Stats() Statistics {
	return c.stats
}

// Registers returns the core's register bank.
func (c *SingleCycleCore) Registers() *emu.RegisterBank {
	return c.regs
}

// Tick fetches, executes, and retires one instruction.
func (c *SingleCycleCore) Tick() error {
	if c.halted {
		return nil
	}
	c.stats.Cycles++

	word, err := c.vm.FetchWord(c.pc)
	if err != nil {
		c.halted = true
		return err
	}
	if uint32(word) == insts.HaltWord {
		c.halted = true
		return nil
	}

	inst := c.decoder.Decode(uint32(word))
	ctrl, err := c.control.Decode(inst)
	if err != nil {
		c.halted = true
		return err
	}

	if err := executeOne(c.vm, c.regs, c.alu, inst, ctrl, &c.pc, &c.stats); err != nil {
		c.halted = true
		return err
	}

	c.stats.Instructions++
	return nil
}

// Run ticks until the core halts or maxCycles elapse.
func (c *SingleCycleCore) Run(maxCycles uint64) error {
	return runLoop(c, maxCycles)
}

// executeOne performs the execute, memory, writeback, and PC update
// phases of one decoded instruction. Shared with the multi-cycle core,
// which spreads the same work over its stage machine.
func executeOne(
	vm *mem.VirtualMemory,
	regs *emu.RegisterBank,
	alu *emu.ALU,
	inst *insts.Instruction,
	ctrl emu.ControlSignals,
	pc *uint32,
	stats *Statistics,
) error {
	rs1Val, err := regs.Read(int(inst.Rs1))
	if err != nil {
		return err
	}
	rs2Val, err := regs.Read(int(inst.Rs2))
	if err != nil {
		return err
	}

	opA := rs1Val
	if ctrl.PCIsOperandA {
		opA = int32(*pc)
	}
	opB := rs2Val
	if ctrl.ALUSrcImm {
		opB = inst.Imm
	}
	result := alu.Execute(opA, opB, ctrl.ALUOp)

	nextPC := *pc + 4
	if ctrl.Branch {
		stats.Branches++
		if alu.Compare(rs1Val, rs2Val, ctrl.BranchCond) {
			stats.TakenBranches++
			nextPC = *pc + uint32(inst.Imm)
		}
	}
	if ctrl.Jump {
		if inst.Opcode == insts.OpcodeJALR {
			nextPC = uint32(result.Value) &^ 1
		} else {
			nextPC = *pc + uint32(inst.Imm)
		}
	}

	writeback := result.Value
	switch {
	case ctrl.MemRead:
		loaded, err := vm.ReadWord(uint32(result.Value))
		if err != nil {
			return err
		}
		writeback = loaded
	case ctrl.MemWrite:
		if err := vm.WriteWord(uint32(result.Value), rs2Val); err != nil {
			return err
		}
	}
	if ctrl.LinkToReg {
		writeback = int32(*pc + 4)
	}

	if ctrl.RegWrite {
		if err := regs.Write(int(inst.Rd), writeback); err != nil {
			return err
		}
	}

	*pc = nextPC
	return nil
}
