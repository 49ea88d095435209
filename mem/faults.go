// Package mem models the memory hierarchy: physical memory with frame
// allocation, a direct-mapped write-back cache, and per-process virtual
// memory with paging.
package mem

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when the frame allocator is exhausted.
var ErrOutOfMemory = errors.New("out of physical memory")

// PageFaultReason distinguishes the causes of a page fault.
type PageFaultReason uint8

// Page fault reasons.
const (
	// FaultNotMapped means no valid entry exists for the page.
	FaultNotMapped PageFaultReason = iota
	// FaultNotPresent means the page is mapped but not resident.
	FaultNotPresent
)

func (r PageFaultReason) String() string {
	switch r {
	case FaultNotMapped:
		return "page not mapped"
	case FaultNotPresent:
		return "page not present"
	default:
		return "unknown"
	}
}

// PageFaultError reports a failed translation. It is recoverable in
// principle by mapping a frame and retrying, but nothing here retries
// automatically.
type PageFaultError struct {
	Addr   uint32
	Write  bool
	Reason PageFaultReason
}

func (e *PageFaultError) Error() string {
	return fmt.Sprintf("page fault at 0x%08X: %s", e.Addr, e.Reason)
}

// ProtectionFaultError reports an access to a mapped page without the
// required permission. It is never auto-recovered.
type ProtectionFaultError struct {
	Addr  uint32
	Write bool
}

func (e *ProtectionFaultError) Error() string {
	kind := "read"
	if e.Write {
		kind = "write"
	}
	return fmt.Sprintf("protection fault: %s at 0x%08X", kind, e.Addr)
}
