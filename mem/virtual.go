package mem

import "fmt"

// Conventional segment bases for process address spaces.
const (
	// DefaultHeapBase is where ExtendHeap starts mapping.
	DefaultHeapBase uint32 = 0x1000_0000
	// DefaultStackTop is the first address above the stack segment;
	// ExtendStack grows downward from here.
	DefaultStackTop uint32 = 0x7FFF_F000
)

// VirtualMemory is one process's view of memory: a private page table
// over the shared physical memory. All process-level reads and writes
// go through here so permissions and translation are always enforced.
type VirtualMemory struct {
	table *PageTable
	phys  *PhysicalMemory

	heapNext  uint32 // next unmapped heap address
	stackNext uint32 // lowest mapped stack address
}

// NewVirtualMemory creates a process view with a fresh page table.
func NewVirtualMemory(phys *PhysicalMemory, pageSize uint32) (*VirtualMemory, error) {
	table, err := NewPageTable(pageSize)
	if err != nil {
		return nil, err
	}
	return &VirtualMemory{
		table:     table,
		phys:      phys,
		heapNext:  DefaultHeapBase,
		stackNext: DefaultStackTop,
	}, nil
}

// PageTable returns this view's page table.
func (v *VirtualMemory) PageTable() *PageTable {
	return v.table
}

// TranslateRead checks read permission and translates va.
func (v *VirtualMemory) TranslateRead(va uint32) (uint32, error) {
	if !v.table.IsMapped(va) {
		return 0, &PageFaultError{Addr: va, Reason: FaultNotMapped}
	}
	if !v.table.CanRead(va) {
		return 0, &ProtectionFaultError{Addr: va}
	}
	return v.table.Translate(va)
}

// TranslateWrite checks write permission, translates va, and marks the
// page dirty before the store happens.
func (v *VirtualMemory) TranslateWrite(va uint32) (uint32, error) {
	if !v.table.IsMapped(va) {
		return 0, &PageFaultError{Addr: va, Write: true, Reason: FaultNotMapped}
	}
	if !v.table.CanWrite(va) {
		return 0, &ProtectionFaultError{Addr: va, Write: true}
	}
	pa, err := v.table.Translate(va)
	if err != nil {
		return 0, err
	}
	v.table.MarkDirty(va)
	return pa, nil
}

// TranslateFetch checks execute permission and translates va.
func (v *VirtualMemory) TranslateFetch(va uint32) (uint32, error) {
	if !v.table.IsMapped(va) {
		return 0, &PageFaultError{Addr: va, Reason: FaultNotMapped}
	}
	if !v.table.CanExecute(va) {
		return 0, &ProtectionFaultError{Addr: va}
	}
	return v.table.Translate(va)
}

// ReadWord reads the word at a virtual address.
func (v *VirtualMemory) ReadWord(va uint32) (int32, error) {
	pa, err := v.TranslateRead(va)
	if err != nil {
		return 0, err
	}
	return v.phys.ReadWord(pa), nil
}

// WriteWord writes a word at a virtual address.
func (v *VirtualMemory) WriteWord(va uint32, value int32) error {
	pa, err := v.TranslateWrite(va)
	if err != nil {
		return err
	}
	v.phys.WriteWord(pa, value)
	return nil
}

// FetchWord reads an instruction word, requiring execute permission.
func (v *VirtualMemory) FetchWord(va uint32) (int32, error) {
	pa, err := v.TranslateFetch(va)
	if err != nil {
		return 0, err
	}
	return v.phys.ReadWord(pa), nil
}

// MapRange allocates frames for a run of contiguous virtual pages
// starting at va and maps them with the given permissions.
func (v *VirtualMemory) MapRange(va uint32, pages int, readable, writable, executable bool) error {
	vpn := v.table.VPN(va)
	for i := 0; i < pages; i++ {
		frame, err := v.phys.AllocateFrame()
		if err != nil {
			return fmt.Errorf("mapping page %d: %w", i, err)
		}
		v.table.MapPage(vpn+uint32(i), frame, readable, writable, executable)
	}
	return nil
}

// MapCode maps a code segment: readable and executable, not writable.
func (v *VirtualMemory) MapCode(va uint32, pages int) error {
	return v.MapRange(va, pages, true, false, true)
}

// MapData maps a data segment: readable and writable, not executable.
func (v *VirtualMemory) MapData(va uint32, pages int) error {
	return v.MapRange(va, pages, true, true, false)
}

// ExtendHeap grows the heap by the given number of pages and returns
// the address of the first new page.
func (v *VirtualMemory) ExtendHeap(pages int) (uint32, error) {
	base := v.heapNext
	if err := v.MapData(base, pages); err != nil {
		return 0, err
	}
	v.heapNext = base + uint32(pages)*v.table.PageSize()
	return base, nil
}

// ExtendStack grows the stack downward by the given number of pages and
// returns the new lowest mapped stack address.
func (v *VirtualMemory) ExtendStack(pages int) (uint32, error) {
	base := v.stackNext - uint32(pages)*v.table.PageSize()
	if err := v.MapData(base, pages); err != nil {
		return 0, err
	}
	v.stackNext = base
	return base, nil
}

// HandlePageFault maps a freshly allocated frame, readable and
// writable, at the page covering va. The faulting access is not
// retried here; the caller decides whether to retry.
func (v *VirtualMemory) HandlePageFault(va uint32) error {
	frame, err := v.phys.AllocateFrame()
	if err != nil {
		return err
	}
	v.table.MapPage(v.table.VPN(va), frame, true, true, false)
	return nil
}

// CopyMappingsFrom duplicates every valid entry of another view: same
// frame, same permissions. This is a fork without copy-on-write: both
// views share frames, and post-fork writes are mutually visible.
func (v *VirtualMemory) CopyMappingsFrom(other *VirtualMemory) {
	for vpn, entry := range other.table.entries {
		if !entry.Valid {
			continue
		}
		v.table.MapPage(vpn, entry.Frame, entry.Readable, entry.Writable, entry.Executable)
	}
}

// UnmapAll releases every valid mapping and frees its frame. Frames
// shared with a forked view may already be freed; those are skipped.
func (v *VirtualMemory) UnmapAll() {
	for vpn, entry := range v.table.entries {
		if !entry.Valid {
			continue
		}
		_ = v.phys.FreeFrame(entry.Frame)
		v.table.UnmapPage(vpn)
	}
}
