// Package loader provides ELF binary loading for RV32 executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/rv32sim/mem"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Load parses a 32-bit RISC-V ELF binary and returns a Program struct
// ready for installing into an address space.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// Install maps every segment into the address space with its ELF
// permissions and copies the file contents into the backing frames.
// BSS tails beyond the file data are left as the zero contents of
// freshly allocated frames.
func (p *Program) Install(vm *mem.VirtualMemory, phys *mem.PhysicalMemory) error {
	pageSize := vm.PageTable().PageSize()

	for _, seg := range p.Segments {
		if seg.MemSize == 0 {
			continue
		}

		base := seg.VirtAddr &^ (pageSize - 1)
		end := seg.VirtAddr + seg.MemSize
		pages := int((end - base + pageSize - 1) / pageSize)

		err := vm.MapRange(base, pages,
			seg.Flags&SegmentFlagRead != 0,
			seg.Flags&SegmentFlagWrite != 0,
			seg.Flags&SegmentFlagExecute != 0)
		if err != nil {
			return fmt.Errorf("mapping segment at 0x%x: %w", seg.VirtAddr, err)
		}

		// Copy page by page since frames need not be contiguous.
		for off := 0; off < len(seg.Data); {
			va := seg.VirtAddr + uint32(off)
			pa, err := vm.PageTable().Translate(va)
			if err != nil {
				return fmt.Errorf("installing segment at 0x%x: %w", seg.VirtAddr, err)
			}
			n := min(len(seg.Data)-off, int(pageSize-va%pageSize))
			phys.WriteBlock(pa, seg.Data[off:off+n])
			off += n
		}
	}

	return nil
}
