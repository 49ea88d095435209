package pipeline

// ForwardSource names where an execute-stage operand comes from when a
// newer value exists in a downstream pipeline register.
type ForwardSource int

const (
	// ForwardNone reads the operand from the register file value
	// latched at decode.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM bypasses the ALU result of the instruction one
	// stage ahead.
	ForwardFromEXMEM
	// ForwardFromMEMWB bypasses the writeback value of the instruction
	// two stages ahead.
	ForwardFromMEMWB
)

// HazardResult is the hazard unit's verdict for one cycle.
type HazardResult struct {
	Stall    bool
	ForwardA ForwardSource
	ForwardB ForwardSource
}

// HazardUnit detects data hazards between in-flight instructions and
// picks forwarding paths or stalls to resolve them.
type HazardUnit struct {
}

// NewHazardUnit creates a hazard unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// Detect examines the instruction about to execute against the two
// downstream pipeline registers. EXMEM forwarding wins over MEMWB when
// both match, since EXMEM holds the younger value. A load in EXMEM
// whose result is needed this cycle cannot be forwarded; that operand
// forces a one-cycle stall instead.
func (h *HazardUnit) Detect(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) HazardResult {
	result := HazardResult{}
	if !idex.Valid {
		return result
	}

	result.ForwardA = h.detectForwardForReg(idex.Rs1, exmem, memwb)
	result.ForwardB = h.detectForwardForReg(idex.Rs2, exmem, memwb)

	if exmem.Valid && exmem.MemRead && exmem.Rd != 0 {
		if exmem.Rd == idex.Rs1 && result.ForwardA == ForwardFromEXMEM {
			result.Stall = true
			result.ForwardA = ForwardNone
		}
		if exmem.Rd == idex.Rs2 && result.ForwardB == ForwardFromEXMEM {
			result.Stall = true
			result.ForwardB = ForwardNone
		}
	}

	return result
}

func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	if reg == 0 {
		return ForwardNone
	}
	if exmem.Valid && exmem.RegWrite && exmem.Rd == reg {
		return ForwardFromEXMEM
	}
	if memwb.Valid && memwb.RegWrite && memwb.Rd == reg {
		return ForwardFromMEMWB
	}
	return ForwardNone
}

// NeedsFlush reports whether the instruction leaving execute redirected
// the PC, which invalidates the two younger instructions behind it.
func (h *HazardUnit) NeedsFlush(exmem *EXMEMRegister) bool {
	return exmem.Valid && exmem.BranchTaken
}
