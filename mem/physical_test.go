package mem_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/mem"
)

var _ = Describe("PhysicalMemory", func() {
	var memory *mem.PhysicalMemory

	BeforeEach(func() {
		// 64KB in 4KB frames.
		memory = mem.NewPhysicalMemory(64*1024, 4*1024)
	})

	Describe("Word access", func() {
		It("should read back written words", func() {
			memory.WriteWord(0x100, -12345)
			Expect(memory.ReadWord(0x100)).To(Equal(int32(-12345)))
		})

		It("should align misaligned addresses down", func() {
			memory.WriteWord(0x102, 7)
			Expect(memory.ReadWord(0x100)).To(Equal(int32(7)))
		})

		It("should return zero for out-of-range reads", func() {
			Expect(memory.ReadWord(0x1000000)).To(Equal(int32(0)))
		})

		It("should drop out-of-range writes", func() {
			memory.WriteWord(0x1000000, 42)
			Expect(memory.ReadWord(0x1000000)).To(Equal(int32(0)))
		})
	})

	Describe("Frame allocation", func() {
		It("should hand out dense frame indices", func() {
			first, err := memory.AllocateFrame()
			Expect(err).ToNot(HaveOccurred())
			second, err := memory.AllocateFrame()
			Expect(err).ToNot(HaveOccurred())

			Expect(first).To(Equal(0))
			Expect(second).To(Equal(1))
			Expect(memory.AllocatedFrames()).To(Equal(2))
		})

		It("should fail with ErrOutOfMemory when exhausted", func() {
			for i := 0; i < memory.FrameCount(); i++ {
				_, err := memory.AllocateFrame()
				Expect(err).ToNot(HaveOccurred())
			}

			_, err := memory.AllocateFrame()
			Expect(errors.Is(err, mem.ErrOutOfMemory)).To(BeTrue())
		})

		It("should reuse freed frames", func() {
			frame, _ := memory.AllocateFrame()
			_, _ = memory.AllocateFrame()

			Expect(memory.FreeFrame(frame)).To(Succeed())

			again, err := memory.AllocateFrame()
			Expect(err).ToNot(HaveOccurred())
			Expect(again).To(Equal(frame))
		})

		It("should never hand out a live frame twice", func() {
			seen := make(map[int]bool)
			for i := 0; i < memory.FrameCount(); i++ {
				frame, err := memory.AllocateFrame()
				Expect(err).ToNot(HaveOccurred())
				Expect(seen[frame]).To(BeFalse())
				seen[frame] = true
			}
		})

		It("should reject freeing an unallocated frame", func() {
			Expect(memory.FreeFrame(3)).ToNot(Succeed())
			Expect(memory.FreeFrame(-1)).ToNot(Succeed())
		})

		It("should reserve specific frames", func() {
			Expect(memory.ReserveFrame(5)).To(Succeed())
			Expect(memory.ReserveFrame(5)).ToNot(Succeed())

			// Allocation skips the reserved frame.
			for i := 0; i < memory.FrameCount()-1; i++ {
				frame, err := memory.AllocateFrame()
				Expect(err).ToNot(HaveOccurred())
				Expect(frame).ToNot(Equal(5))
			}
		})
	})

	Describe("Program loading", func() {
		It("should place words sequentially", func() {
			memory.LoadProgram(0x200, []uint32{1, 2, 3})

			Expect(memory.ReadWord(0x200)).To(Equal(int32(1)))
			Expect(memory.ReadWord(0x204)).To(Equal(int32(2)))
			Expect(memory.ReadWord(0x208)).To(Equal(int32(3)))
		})
	})
})
