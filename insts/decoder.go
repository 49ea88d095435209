package insts

// Decoder decodes RV32 machine code into instructions.
// Decoding is total: every word yields field decomposition and an
// immediate for its format. Whether the encoding is a supported
// operation is decided later, at control decode.
type Decoder struct{}

// NewDecoder creates a new RV32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Raw:    word,
		Opcode: uint8(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Funct7: uint8(word >> 25),
	}

	inst.Format = formatFor(inst.Opcode)
	inst.Imm = extractImm(word, inst.Format)

	return inst
}

// formatFor returns the encoding format for an opcode.
func formatFor(opcode uint8) Format {
	switch opcode {
	case OpcodeOp:
		return FormatR
	case OpcodeOpImm, OpcodeLoad, OpcodeJALR, OpcodeSystem:
		return FormatI
	case OpcodeStore:
		return FormatS
	case OpcodeBranch:
		return FormatB
	case OpcodeLUI, OpcodeAUIPC:
		return FormatU
	case OpcodeJAL:
		return FormatJ
	default:
		return FormatUnknown
	}
}

// extractImm extracts the sign-extended immediate for a format.
// Arithmetic right shift of the int32 word performs the sign extension
// from bit 31.
func extractImm(word uint32, format Format) int32 {
	switch format {
	case FormatI:
		return int32(word) >> 20
	case FormatS:
		return (int32(word)>>25)<<5 | int32((word>>7)&0x1F)
	case FormatB:
		return (int32(word)>>31)<<12 |
			int32((word>>7)&0x1)<<11 |
			int32((word>>25)&0x3F)<<5 |
			int32((word>>8)&0xF)<<1
	case FormatU:
		return int32(word & 0xFFFFF000)
	case FormatJ:
		return (int32(word)>>31)<<20 |
			int32((word>>12)&0xFF)<<12 |
			int32((word>>20)&0x1)<<11 |
			int32((word>>21)&0x3FF)<<1
	default:
		return 0
	}
}
