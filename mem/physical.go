package mem

import (
	"encoding/binary"
	"fmt"

	akitamem "github.com/sarchlab/akita/v4/mem/mem"
)

// WordSize is the number of bytes in a machine word.
const WordSize = 4

// PhysicalMemory is the flat physical store, divided into fixed-size
// frames. One instance is shared by every process view; frame
// allocation state lives here because it is hardware state.
type PhysicalMemory struct {
	storage   *akitamem.Storage
	size      uint32
	frameSize uint32
	allocated []bool
}

// NewPhysicalMemory creates a physical memory of the given size,
// divided into frames of frameSize bytes.
func NewPhysicalMemory(size, frameSize uint32) *PhysicalMemory {
	numFrames := size / frameSize
	return &PhysicalMemory{
		storage:   akitamem.NewStorage(uint64(size)),
		size:      size,
		frameSize: frameSize,
		allocated: make([]bool, numFrames),
	}
}

// Size returns the total capacity in bytes.
func (m *PhysicalMemory) Size() uint32 {
	return m.size
}

// FrameSize returns the frame size in bytes.
func (m *PhysicalMemory) FrameSize() uint32 {
	return m.frameSize
}

// FrameCount returns the number of frames.
func (m *PhysicalMemory) FrameCount() int {
	return len(m.allocated)
}

// AllocatedFrames returns how many frames are currently allocated.
func (m *PhysicalMemory) AllocatedFrames() int {
	n := 0
	for _, used := range m.allocated {
		if used {
			n++
		}
	}
	return n
}

// FrameAddress returns the byte address of the first word of a frame.
func (m *PhysicalMemory) FrameAddress(frame int) uint32 {
	return uint32(frame) * m.frameSize
}

// AllocateFrame claims the lowest free frame. It fails with
// ErrOutOfMemory when no frame is free.
func (m *PhysicalMemory) AllocateFrame() (int, error) {
	for i, used := range m.allocated {
		if !used {
			m.allocated[i] = true
			return i, nil
		}
	}
	return 0, ErrOutOfMemory
}

// ReserveFrame claims a specific frame, for loaders that need fixed
// placement.
func (m *PhysicalMemory) ReserveFrame(frame int) error {
	if frame < 0 || frame >= len(m.allocated) {
		return fmt.Errorf("frame %d out of range", frame)
	}
	if m.allocated[frame] {
		return fmt.Errorf("frame %d already allocated", frame)
	}
	m.allocated[frame] = true
	return nil
}

// FreeFrame returns a frame to the pool.
func (m *PhysicalMemory) FreeFrame(frame int) error {
	if frame < 0 || frame >= len(m.allocated) {
		return fmt.Errorf("frame %d out of range", frame)
	}
	if !m.allocated[frame] {
		return fmt.Errorf("frame %d not allocated", frame)
	}
	m.allocated[frame] = false
	return nil
}

// ReadWord reads the word at a byte address. Misaligned addresses are
// aligned down; out-of-range reads return 0.
func (m *PhysicalMemory) ReadWord(addr uint32) int32 {
	addr &^= WordSize - 1
	if addr+WordSize > m.size {
		return 0
	}
	data, err := m.storage.Read(uint64(addr), WordSize)
	if err != nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(data))
}

// WriteWord writes a word at a byte address. Misaligned addresses are
// aligned down; out-of-range writes are dropped.
func (m *PhysicalMemory) WriteWord(addr uint32, value int32) {
	addr &^= WordSize - 1
	if addr+WordSize > m.size {
		return
	}
	data := make([]byte, WordSize)
	binary.LittleEndian.PutUint32(data, uint32(value))
	_ = m.storage.Write(uint64(addr), data)
}

// ReadBlock reads size bytes starting at addr, for cache fills.
// Out-of-range reads return zeros.
func (m *PhysicalMemory) ReadBlock(addr uint32, size int) []byte {
	if uint64(addr)+uint64(size) > uint64(m.size) {
		return make([]byte, size)
	}
	data, err := m.storage.Read(uint64(addr), uint64(size))
	if err != nil {
		return make([]byte, size)
	}
	return data
}

// WriteBlock writes a block of bytes starting at addr, for cache
// writebacks. Out-of-range writes are dropped.
func (m *PhysicalMemory) WriteBlock(addr uint32, data []byte) {
	if uint64(addr)+uint64(len(data)) > uint64(m.size) {
		return
	}
	_ = m.storage.Write(uint64(addr), data)
}

// LoadProgram writes a sequence of instruction words starting at addr.
func (m *PhysicalMemory) LoadProgram(addr uint32, words []uint32) {
	for i, word := range words {
		m.WriteWord(addr+uint32(i*WordSize), int32(word))
	}
}
