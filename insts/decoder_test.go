package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("R-format", func() {
		It("should decode add x1, x2, x3", func() {
			inst := decoder.Decode(insts.ADD(1, 2, 3))

			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Opcode).To(Equal(insts.OpcodeOp))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
			Expect(inst.Funct3).To(Equal(uint8(0)))
			Expect(inst.Funct7).To(Equal(uint8(0)))
		})

		It("should decode sub with funct7 0x20", func() {
			inst := decoder.Decode(insts.SUB(4, 5, 6))

			Expect(inst.Funct7).To(Equal(uint8(0x20)))
		})

		It("should decode mul with funct7 0x01", func() {
			inst := decoder.Decode(insts.MUL(4, 5, 6))

			Expect(inst.Funct7).To(Equal(uint8(0x01)))
		})
	})

	Describe("I-format", func() {
		It("should decode a positive immediate", func() {
			inst := decoder.Decode(insts.ADDI(1, 2, 100))

			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Imm).To(Equal(int32(100)))
		})

		It("should sign-extend a negative immediate", func() {
			inst := decoder.Decode(insts.ADDI(1, 2, -1))

			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("should decode lw offsets", func() {
			inst := decoder.Decode(insts.LW(3, 10, -8))

			Expect(inst.Opcode).To(Equal(insts.OpcodeLoad))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("S-format", func() {
		It("should reassemble the split immediate", func() {
			inst := decoder.Decode(insts.SW(5, 2, 124))

			Expect(inst.Format).To(Equal(insts.FormatS))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(124)))
		})

		It("should sign-extend negative store offsets", func() {
			inst := decoder.Decode(insts.SW(5, 2, -4))

			Expect(inst.Imm).To(Equal(int32(-4)))
		})
	})

	Describe("B-format", func() {
		It("should decode forward branch offsets", func() {
			inst := decoder.Decode(insts.BEQ(1, 2, 16))

			Expect(inst.Format).To(Equal(insts.FormatB))
			Expect(inst.Imm).To(Equal(int32(16)))
		})

		It("should decode backward branch offsets", func() {
			inst := decoder.Decode(insts.BNE(1, 2, -12))

			Expect(inst.Imm).To(Equal(int32(-12)))
		})
	})

	Describe("U-format", func() {
		It("should place the immediate in the upper 20 bits", func() {
			inst := decoder.Decode(insts.LUI(7, 0x12345))

			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.Rd).To(Equal(uint8(7)))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})
	})

	Describe("J-format", func() {
		It("should decode jal offsets", func() {
			inst := decoder.Decode(insts.JAL(1, 2048))

			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(2048)))
		})

		It("should decode negative jal offsets", func() {
			inst := decoder.Decode(insts.JAL(0, -64))

			Expect(inst.Imm).To(Equal(int32(-64)))
		})
	})

	Describe("Sentinels", func() {
		It("should recognize the halt word", func() {
			inst := decoder.Decode(insts.EBREAK())

			Expect(inst.IsHalt()).To(BeTrue())
			Expect(inst.IsNop()).To(BeFalse())
		})

		It("should recognize the NOP word", func() {
			inst := decoder.Decode(insts.NOP())

			Expect(inst.IsNop()).To(BeTrue())
			Expect(inst.IsHalt()).To(BeFalse())
		})
	})
})
