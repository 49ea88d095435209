// Package insts provides RV32 instruction definitions and decoding.
package insts

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register
	FormatI              // Register-immediate, loads, JALR
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatU              // Upper immediate (LUI, AUIPC)
	FormatJ              // JAL
)

// RV32 base opcodes (bits [6:0] of the instruction word).
const (
	OpcodeOp     uint8 = 0x33 // Register-register ALU
	OpcodeOpImm  uint8 = 0x13 // Register-immediate ALU
	OpcodeLoad   uint8 = 0x03 // Loads
	OpcodeStore  uint8 = 0x23 // Stores
	OpcodeBranch uint8 = 0x63 // Conditional branches
	OpcodeJAL    uint8 = 0x6F // Jump and link
	OpcodeJALR   uint8 = 0x67 // Jump and link register
	OpcodeLUI    uint8 = 0x37 // Load upper immediate
	OpcodeAUIPC  uint8 = 0x17 // Add upper immediate to PC
	OpcodeSystem uint8 = 0x73 // ECALL/EBREAK
)

// Well-known instruction words.
const (
	// HaltWord is the EBREAK encoding, used as the halt sentinel.
	HaltWord uint32 = 0x00100073
	// NopWord is the canonical NOP (addi x0, x0, 0).
	NopWord uint32 = 0x00000013
)

// Instruction represents a decoded RV32 instruction.
// Field validity depends on Format: Rs2 carries no meaning for I-format,
// Rd for S/B-format, and so on.
type Instruction struct {
	// Raw is the original 32-bit instruction word.
	Raw uint32

	Opcode uint8
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Funct3 uint8
	Funct7 uint8

	// Imm is the sign-extended immediate for the instruction's format.
	Imm int32

	Format Format
}

// IsHalt returns true if this is the halt sentinel (EBREAK).
func (i *Instruction) IsHalt() bool {
	return i.Raw == HaltWord
}

// IsNop returns true if this is the canonical NOP.
func (i *Instruction) IsNop() bool {
	return i.Raw == NopWord
}
