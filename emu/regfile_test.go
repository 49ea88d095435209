package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("RegisterBank", func() {
	var regs *emu.RegisterBank

	BeforeEach(func() {
		regs = emu.NewRegisterBank()
	})

	It("should read back written values", func() {
		Expect(regs.Write(5, 42)).To(Succeed())

		value, err := regs.Read(5)
		Expect(err).ToNot(HaveOccurred())
		Expect(value).To(Equal(int32(42)))
	})

	It("should keep register 0 hardwired to zero", func() {
		Expect(regs.Write(0, 123)).To(Succeed())

		value, err := regs.Read(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(value).To(Equal(int32(0)))
	})

	It("should fail on out-of-range indices", func() {
		_, err := regs.Read(32)
		Expect(err).To(HaveOccurred())

		var indexErr *emu.IndexError
		Expect(errors.As(err, &indexErr)).To(BeTrue())
		Expect(indexErr.Index).To(Equal(32))

		Expect(regs.Write(-1, 0)).ToNot(Succeed())
	})

	It("should persist values until overwritten", func() {
		Expect(regs.Write(7, 1)).To(Succeed())
		Expect(regs.Write(8, 2)).To(Succeed())
		Expect(regs.Write(7, 3)).To(Succeed())

		seven, _ := regs.Read(7)
		eight, _ := regs.Read(8)
		Expect(seven).To(Equal(int32(3)))
		Expect(eight).To(Equal(int32(2)))
	})

	Describe("Context switching", func() {
		It("should save and restore all registers", func() {
			for i := 1; i < emu.NumRegs; i++ {
				Expect(regs.Write(i, int32(i*10))).To(Succeed())
			}
			ctx := regs.SaveContext()

			other := emu.NewRegisterBank()
			other.RestoreContext(ctx)

			for i := 1; i < emu.NumRegs; i++ {
				value, _ := other.Read(i)
				Expect(value).To(Equal(int32(i * 10)))
			}
		})

		It("should keep register 0 zero across restore", func() {
			var ctx [emu.NumRegs]int32
			ctx[0] = 99
			regs.RestoreContext(ctx)

			value, _ := regs.Read(0)
			Expect(value).To(Equal(int32(0)))
		})
	})
})
