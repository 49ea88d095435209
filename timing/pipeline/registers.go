package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// IFIDRegister carries a fetched instruction word from fetch to decode.
type IFIDRegister struct {
	Valid bool
	PC    uint32
	Word  uint32
}

// Clear empties the register, leaving a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister carries a decoded instruction, its control signals, and
// its register operands from decode to execute.
type IDEXRegister struct {
	Valid bool
	PC    uint32
	Inst  *insts.Instruction
	Ctrl  emu.ControlSignals

	Rs1Value int32
	Rs2Value int32
	Rd       uint8
	Rs1      uint8
	Rs2      uint8
}

// Clear empties the register, leaving a bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister carries the ALU result and memory intent from execute
// to the memory stage.
type EXMEMRegister struct {
	Valid bool
	PC    uint32
	Inst  *insts.Instruction

	ALUResult  int32
	StoreValue int32
	Rd         uint8

	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool

	BranchTaken  bool
	BranchTarget uint32
}

// Clear empties the register, leaving a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister carries the value to write back, either the ALU result
// or loaded data, from the memory stage to writeback.
type MEMWBRegister struct {
	Valid bool
	PC    uint32
	Inst  *insts.Instruction

	ALUResult int32
	MemData   int32
	Rd        uint8

	RegWrite bool
	MemToReg bool
}

// Clear empties the register, leaving a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
