package mem

import (
	"fmt"
	"math/bits"
)

// PageTableEntry maps one virtual page to a frame. Absence of an entry
// is distinct from an invalid entry: an unmapped page has no entry at
// all, while UnmapPage leaves an invalid entry behind with the frame
// association retained for inspection.
type PageTableEntry struct {
	Frame int

	Valid      bool
	Readable   bool
	Writable   bool
	Executable bool

	Dirty    bool
	Accessed bool
	Present  bool
}

// PageTableStats holds per-table translation counters.
type PageTableStats struct {
	Lookups    uint64
	Hits       uint64
	PageFaults uint64
}

// HitRate returns hits / lookups.
func (s PageTableStats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

// PageTable is one process's VPN-to-frame mapping. It is created at
// process creation, owned by exactly one VirtualMemory view, and never
// shared.
type PageTable struct {
	pageSize   uint32
	offsetBits uint
	entries    map[uint32]*PageTableEntry
	stats      PageTableStats
}

// NewPageTable creates a page table. pageSize must be a power of two.
func NewPageTable(pageSize uint32) (*PageTable, error) {
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		return nil, fmt.Errorf("page size %d is not a power of two", pageSize)
	}
	return &PageTable{
		pageSize:   pageSize,
		offsetBits: uint(bits.TrailingZeros32(pageSize)),
		entries:    make(map[uint32]*PageTableEntry),
	}, nil
}

// PageSize returns the page size in bytes.
func (t *PageTable) PageSize() uint32 {
	return t.pageSize
}

// VPN returns the virtual page number of an address.
func (t *PageTable) VPN(va uint32) uint32 {
	return va >> t.offsetBits
}

// Offset returns the within-page offset of an address.
func (t *PageTable) Offset(va uint32) uint32 {
	return va & (t.pageSize - 1)
}

// Lookup returns the entry covering va, or nil if none exists. Every
// call counts as a lookup; only an existing, valid, present entry
// counts as a hit and has its accessed flag set.
func (t *PageTable) Lookup(va uint32) *PageTableEntry {
	t.stats.Lookups++

	entry := t.entries[t.VPN(va)]
	if entry != nil && entry.Valid && entry.Present {
		t.stats.Hits++
		entry.Accessed = true
	}
	return entry
}

// Translate maps a virtual address to a physical address. Every
// translation goes through Lookup, so it counts toward the lookup and
// hit statistics and sets the accessed flag on success. It fails with
// a *PageFaultError when no entry exists, the entry is invalid, or the
// page is not present; each failure increments the page-fault counter.
func (t *PageTable) Translate(va uint32) (uint32, error) {
	entry := t.Lookup(va)

	if entry == nil || !entry.Valid {
		t.stats.PageFaults++
		return 0, &PageFaultError{Addr: va, Reason: FaultNotMapped}
	}
	if !entry.Present {
		t.stats.PageFaults++
		return 0, &PageFaultError{Addr: va, Reason: FaultNotPresent}
	}

	return uint32(entry.Frame)<<t.offsetBits | t.Offset(va), nil
}

// MapPage installs or replaces the entry for a virtual page, marking it
// valid and present.
func (t *PageTable) MapPage(vpn uint32, frame int, readable, writable, executable bool) {
	t.entries[vpn] = &PageTableEntry{
		Frame:      frame,
		Valid:      true,
		Present:    true,
		Readable:   readable,
		Writable:   writable,
		Executable: executable,
	}
}

// UnmapPage clears the valid and present bits. The frame association is
// retained so the released mapping stays inspectable.
func (t *PageTable) UnmapPage(vpn uint32) {
	if entry := t.entries[vpn]; entry != nil {
		entry.Valid = false
		entry.Present = false
	}
}

// MarkDirty sets the dirty bit for the page covering va. It goes
// through Lookup, so marking counts as an access.
func (t *PageTable) MarkDirty(va uint32) {
	if entry := t.Lookup(va); entry != nil {
		entry.Dirty = true
	}
}

// IsMapped returns true if a valid entry covers va.
func (t *PageTable) IsMapped(va uint32) bool {
	entry := t.entries[t.VPN(va)]
	return entry != nil && entry.Valid
}

// CanRead returns true if va is mapped with read permission.
func (t *PageTable) CanRead(va uint32) bool {
	entry := t.entries[t.VPN(va)]
	return entry != nil && entry.Valid && entry.Readable
}

// CanWrite returns true if va is mapped with write permission.
func (t *PageTable) CanWrite(va uint32) bool {
	entry := t.entries[t.VPN(va)]
	return entry != nil && entry.Valid && entry.Writable
}

// CanExecute returns true if va is mapped with execute permission.
func (t *PageTable) CanExecute(va uint32) bool {
	entry := t.entries[t.VPN(va)]
	return entry != nil && entry.Valid && entry.Executable
}

// Stats returns the translation counters.
func (t *PageTable) Stats() PageTableStats {
	return t.stats
}
