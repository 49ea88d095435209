package emu

import "fmt"

// NumRegs is the number of architectural registers.
const NumRegs = 32

// IndexError reports a register index outside [0, 31].
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("register index %d out of range", e.Index)
}

// RegisterBank is the 32-entry register file. Register 0 is hardwired
// to zero: it always reads as 0 and silently discards writes.
type RegisterBank struct {
	x [NumRegs]int32
}

// NewRegisterBank creates a new register bank with all registers zero.
func NewRegisterBank() *RegisterBank {
	return &RegisterBank{}
}

// Read returns the value of a register.
func (r *RegisterBank) Read(index int) (int32, error) {
	if index < 0 || index >= NumRegs {
		return 0, &IndexError{Index: index}
	}
	return r.x[index], nil
}

// Write sets the value of a register. Writes to register 0 are
// discarded.
func (r *RegisterBank) Write(index int, value int32) error {
	if index < 0 || index >= NumRegs {
		return &IndexError{Index: index}
	}
	if index == 0 {
		return nil
	}
	r.x[index] = value
	return nil
}

// SaveContext copies out all 32 register values for a context switch.
func (r *RegisterBank) SaveContext() [NumRegs]int32 {
	return r.x
}

// RestoreContext loads all 32 register values. Register 0 stays zero.
func (r *RegisterBank) RestoreContext(ctx [NumRegs]int32) {
	r.x = ctx
	r.x[0] = 0
}
