package insts

// Instruction word builders. These assemble individual RV32 words so
// programs can be constructed in code without an external assembler.

// ADD builds add rd, rs1, rs2.
func ADD(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x0, rs1, rs2, 0x00) }

// SUB builds sub rd, rs1, rs2.
func SUB(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x0, rs1, rs2, 0x20) }

// AND builds and rd, rs1, rs2.
func AND(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x7, rs1, rs2, 0x00) }

// OR builds or rd, rs1, rs2.
func OR(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x6, rs1, rs2, 0x00) }

// XOR builds xor rd, rs1, rs2.
func XOR(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x4, rs1, rs2, 0x00) }

// SLL builds sll rd, rs1, rs2.
func SLL(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x1, rs1, rs2, 0x00) }

// SRA builds sra rd, rs1, rs2.
func SRA(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x5, rs1, rs2, 0x20) }

// SLT builds slt rd, rs1, rs2.
func SLT(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x2, rs1, rs2, 0x00) }

// MUL builds mul rd, rs1, rs2.
func MUL(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x0, rs1, rs2, 0x01) }

// DIV builds div rd, rs1, rs2.
func DIV(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x4, rs1, rs2, 0x01) }

// REM builds rem rd, rs1, rs2.
func REM(rd, rs1, rs2 uint8) uint32 { return encodeR(OpcodeOp, rd, 0x6, rs1, rs2, 0x01) }

// ADDI builds addi rd, rs1, imm.
func ADDI(rd, rs1 uint8, imm int32) uint32 { return encodeI(OpcodeOpImm, rd, 0x0, rs1, imm) }

// ANDI builds andi rd, rs1, imm.
func ANDI(rd, rs1 uint8, imm int32) uint32 { return encodeI(OpcodeOpImm, rd, 0x7, rs1, imm) }

// ORI builds ori rd, rs1, imm.
func ORI(rd, rs1 uint8, imm int32) uint32 { return encodeI(OpcodeOpImm, rd, 0x6, rs1, imm) }

// SLLI builds slli rd, rs1, shamt.
func SLLI(rd, rs1 uint8, shamt int32) uint32 {
	return encodeI(OpcodeOpImm, rd, 0x1, rs1, shamt&0x1F)
}

// SRAI builds srai rd, rs1, shamt.
func SRAI(rd, rs1 uint8, shamt int32) uint32 {
	return encodeI(OpcodeOpImm, rd, 0x5, rs1, shamt&0x1F|0x400)
}

// LW builds lw rd, imm(rs1).
func LW(rd, rs1 uint8, imm int32) uint32 { return encodeI(OpcodeLoad, rd, 0x2, rs1, imm) }

// SW builds sw rs2, imm(rs1).
func SW(rs2, rs1 uint8, imm int32) uint32 { return encodeS(rs1, rs2, imm) }

// BEQ builds beq rs1, rs2, offset.
func BEQ(rs1, rs2 uint8, offset int32) uint32 { return encodeB(0x0, rs1, rs2, offset) }

// BNE builds bne rs1, rs2, offset.
func BNE(rs1, rs2 uint8, offset int32) uint32 { return encodeB(0x1, rs1, rs2, offset) }

// BLT builds blt rs1, rs2, offset.
func BLT(rs1, rs2 uint8, offset int32) uint32 { return encodeB(0x4, rs1, rs2, offset) }

// BGE builds bge rs1, rs2, offset.
func BGE(rs1, rs2 uint8, offset int32) uint32 { return encodeB(0x5, rs1, rs2, offset) }

// JAL builds jal rd, offset.
func JAL(rd uint8, offset int32) uint32 {
	i := uint32(offset)
	return (i>>20&0x1)<<31 | (i>>1&0x3FF)<<21 | (i>>11&0x1)<<20 |
		(i>>12&0xFF)<<12 | uint32(rd)<<7 | uint32(OpcodeJAL)
}

// JALR builds jalr rd, imm(rs1).
func JALR(rd, rs1 uint8, imm int32) uint32 { return encodeI(OpcodeJALR, rd, 0x0, rs1, imm) }

// LUI builds lui rd, imm (imm is the value for bits [31:12]).
func LUI(rd uint8, imm int32) uint32 {
	return uint32(imm)<<12 | uint32(rd)<<7 | uint32(OpcodeLUI)
}

// EBREAK builds the halt sentinel.
func EBREAK() uint32 { return HaltWord }

// NOP builds the canonical NOP.
func NOP() uint32 { return NopWord }

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(funct7)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		uint32(funct3)<<12 | uint32(rd)<<7 | uint32(opcode)
}

func encodeI(opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return uint32(imm&0xFFF)<<20 | uint32(rs1)<<15 |
		uint32(funct3)<<12 | uint32(rd)<<7 | uint32(opcode)
}

func encodeS(rs1, rs2 uint8, imm int32) uint32 {
	i := uint32(imm)
	return (i>>5&0x7F)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 |
		0x2<<12 | (i&0x1F)<<7 | uint32(OpcodeStore)
}

func encodeB(funct3, rs1, rs2 uint8, offset int32) uint32 {
	i := uint32(offset)
	return (i>>12&0x1)<<31 | (i>>5&0x3F)<<25 | uint32(rs2)<<20 |
		uint32(rs1)<<15 | uint32(funct3)<<12 |
		(i>>1&0xF)<<8 | (i>>11&0x1)<<7 | uint32(OpcodeBranch)
}
