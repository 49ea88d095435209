package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// ControlSignals is the control bundle produced for one instruction.
// At most one of MemToReg and LinkToReg is set.
type ControlSignals struct {
	// ALUOp selects the ALU operation.
	ALUOp Op
	// ALUSrcImm selects the immediate as the second ALU operand.
	ALUSrcImm bool
	// PCIsOperandA selects the PC as the first ALU operand (AUIPC).
	PCIsOperandA bool

	// MemRead is set for loads, MemWrite for stores.
	MemRead  bool
	MemWrite bool

	// RegWrite is set when the instruction writes a register.
	RegWrite bool
	// MemToReg selects the memory result as the writeback value.
	MemToReg bool
	// LinkToReg selects PC+4 as the writeback value (JAL/JALR).
	LinkToReg bool

	// Branch is set for conditional branches, with BranchCond selecting
	// the comparison. Jump is set for unconditional jumps.
	Branch     bool
	BranchCond BranchCond
	Jump       bool
}

// DecodeError reports an unsupported instruction encoding.
type DecodeError struct {
	Raw uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unsupported instruction encoding 0x%08X", e.Raw)
}

// ControlUnit derives control signals from decoded instructions.
// It is stateless; Decode may be called in any order.
type ControlUnit struct{}

// NewControlUnit creates a new control unit.
func NewControlUnit() *ControlUnit {
	return &ControlUnit{}
}

// Decode maps an instruction to its control signals. Unsupported
// encodings fail with a *DecodeError.
func (u *ControlUnit) Decode(inst *insts.Instruction) (ControlSignals, error) {
	switch inst.Opcode {
	case insts.OpcodeOp:
		return u.decodeOp(inst)
	case insts.OpcodeOpImm:
		return u.decodeOpImm(inst)
	case insts.OpcodeLoad:
		if inst.Funct3 != 0x2 {
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
		return ControlSignals{
			ALUOp:     OpAdd,
			ALUSrcImm: true,
			MemRead:   true,
			RegWrite:  true,
			MemToReg:  true,
		}, nil
	case insts.OpcodeStore:
		if inst.Funct3 != 0x2 {
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
		return ControlSignals{
			ALUOp:     OpAdd,
			ALUSrcImm: true,
			MemWrite:  true,
		}, nil
	case insts.OpcodeBranch:
		cond, ok := branchCondFor(inst.Funct3)
		if !ok {
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
		return ControlSignals{
			ALUOp:      OpSub,
			Branch:     true,
			BranchCond: cond,
		}, nil
	case insts.OpcodeJAL:
		return ControlSignals{
			RegWrite:  true,
			LinkToReg: true,
			Jump:      true,
		}, nil
	case insts.OpcodeJALR:
		return ControlSignals{
			ALUOp:     OpAdd,
			ALUSrcImm: true,
			RegWrite:  true,
			LinkToReg: true,
			Jump:      true,
		}, nil
	case insts.OpcodeLUI:
		return ControlSignals{
			ALUOp:     OpPassB,
			ALUSrcImm: true,
			RegWrite:  true,
		}, nil
	case insts.OpcodeAUIPC:
		return ControlSignals{
			ALUOp:        OpAdd,
			ALUSrcImm:    true,
			PCIsOperandA: true,
			RegWrite:     true,
		}, nil
	case insts.OpcodeSystem:
		// The halt sentinel is recognized before control decode.
		return ControlSignals{}, nil
	default:
		return ControlSignals{}, &DecodeError{Raw: inst.Raw}
	}
}

func (u *ControlUnit) decodeOp(inst *insts.Instruction) (ControlSignals, error) {
	signals := ControlSignals{RegWrite: true}

	switch inst.Funct7 {
	case 0x00:
		switch inst.Funct3 {
		case 0x0:
			signals.ALUOp = OpAdd
		case 0x1:
			signals.ALUOp = OpSll
		case 0x2:
			signals.ALUOp = OpSlt
		case 0x3:
			signals.ALUOp = OpSltu
		case 0x4:
			signals.ALUOp = OpXor
		case 0x5:
			signals.ALUOp = OpSrl
		case 0x6:
			signals.ALUOp = OpOr
		case 0x7:
			signals.ALUOp = OpAnd
		}
	case 0x20:
		switch inst.Funct3 {
		case 0x0:
			signals.ALUOp = OpSub
		case 0x5:
			signals.ALUOp = OpSra
		default:
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
	case 0x01:
		switch inst.Funct3 {
		case 0x0:
			signals.ALUOp = OpMul
		case 0x1:
			signals.ALUOp = OpMulh
		case 0x3:
			signals.ALUOp = OpMulhu
		case 0x4:
			signals.ALUOp = OpDiv
		case 0x5:
			signals.ALUOp = OpDivu
		case 0x6:
			signals.ALUOp = OpRem
		case 0x7:
			signals.ALUOp = OpRemu
		default:
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
	default:
		return ControlSignals{}, &DecodeError{Raw: inst.Raw}
	}

	return signals, nil
}

func (u *ControlUnit) decodeOpImm(inst *insts.Instruction) (ControlSignals, error) {
	signals := ControlSignals{RegWrite: true, ALUSrcImm: true}

	switch inst.Funct3 {
	case 0x0:
		signals.ALUOp = OpAdd
	case 0x1:
		if inst.Funct7 != 0x00 {
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
		signals.ALUOp = OpSll
	case 0x2:
		signals.ALUOp = OpSlt
	case 0x3:
		signals.ALUOp = OpSltu
	case 0x4:
		signals.ALUOp = OpXor
	case 0x5:
		// Funct7 distinguishes srli from srai.
		switch inst.Funct7 {
		case 0x00:
			signals.ALUOp = OpSrl
		case 0x20:
			signals.ALUOp = OpSra
		default:
			return ControlSignals{}, &DecodeError{Raw: inst.Raw}
		}
	case 0x6:
		signals.ALUOp = OpOr
	case 0x7:
		signals.ALUOp = OpAnd
	}

	return signals, nil
}

func branchCondFor(funct3 uint8) (BranchCond, bool) {
	switch funct3 {
	case 0x0:
		return CondEQ, true
	case 0x1:
		return CondNE, true
	case 0x4:
		return CondLT, true
	case 0x5:
		return CondGE, true
	case 0x6:
		return CondLTU, true
	case 0x7:
		return CondGEU, true
	default:
		return 0, false
	}
}
