// Package emu provides the combinational datapath components: the ALU,
// the control unit, and the register bank.
package emu

// Op selects an ALU operation.
type Op uint8

// ALU operations.
const (
	OpAdd Op = iota
	OpSub
	OpAnd
	OpOr
	OpXor
	OpSll
	OpSrl
	OpSra
	OpSlt
	OpSltu
	OpMul
	OpMulh
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpPassB
)

// BranchCond selects a branch comparison.
type BranchCond uint8

// Branch conditions.
const (
	CondEQ BranchCond = iota
	CondNE
	CondLT
	CondGE
	CondLTU
	CondGEU
)

// Result holds an ALU computation and its derived flags.
type Result struct {
	Value    int32
	Zero     bool
	Negative bool
	Overflow bool
	Carry    bool
}

// ALU implements the combinational arithmetic and logic unit.
// It holds no state; Execute may be called in any order.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute computes op over the two operands. Shift amounts are masked
// to 5 bits. Division by zero does not fail: divide yields all ones,
// remainder yields the dividend.
func (a *ALU) Execute(op1, op2 int32, op Op) Result {
	var value int32
	var overflow, carry bool

	switch op {
	case OpAdd:
		value = op1 + op2
		overflow, carry = addFlags(op1, op2, value)
	case OpSub:
		value = op1 - op2
		overflow, carry = subFlags(op1, op2, value)
	case OpAnd:
		value = op1 & op2
	case OpOr:
		value = op1 | op2
	case OpXor:
		value = op1 ^ op2
	case OpSll:
		value = op1 << (uint32(op2) & 0x1F)
	case OpSrl:
		value = int32(uint32(op1) >> (uint32(op2) & 0x1F))
	case OpSra:
		value = op1 >> (uint32(op2) & 0x1F)
	case OpSlt:
		if op1 < op2 {
			value = 1
		}
	case OpSltu:
		if uint32(op1) < uint32(op2) {
			value = 1
		}
	case OpMul:
		value = op1 * op2
	case OpMulh:
		value = int32((int64(op1) * int64(op2)) >> 32)
	case OpMulhu:
		value = int32((uint64(uint32(op1)) * uint64(uint32(op2))) >> 32)
	case OpDiv:
		if op2 == 0 {
			value = -1
		} else {
			value = op1 / op2
		}
	case OpDivu:
		if op2 == 0 {
			value = -1
		} else {
			value = int32(uint32(op1) / uint32(op2))
		}
	case OpRem:
		if op2 == 0 {
			value = op1
		} else {
			value = op1 % op2
		}
	case OpRemu:
		if op2 == 0 {
			value = op1
		} else {
			value = int32(uint32(op1) % uint32(op2))
		}
	case OpPassB:
		value = op2
	}

	return Result{
		Value:    value,
		Zero:     value == 0,
		Negative: value < 0,
		Overflow: overflow,
		Carry:    carry,
	}
}

// Compare evaluates a branch condition over the two operands.
func (a *ALU) Compare(op1, op2 int32, cond BranchCond) bool {
	switch cond {
	case CondEQ:
		return op1 == op2
	case CondNE:
		return op1 != op2
	case CondLT:
		return op1 < op2
	case CondGE:
		return op1 >= op2
	case CondLTU:
		return uint32(op1) < uint32(op2)
	case CondGEU:
		return uint32(op1) >= uint32(op2)
	default:
		return false
	}
}

// addFlags derives the overflow and carry flags for addition.
// Signed overflow occurs when adding two operands of the same sign
// yields a result of the opposite sign.
func addFlags(op1, op2, result int32) (overflow, carry bool) {
	op1Sign := op1 < 0
	op2Sign := op2 < 0
	resultSign := result < 0
	overflow = op1Sign == op2Sign && op1Sign != resultSign
	carry = uint32(result) < uint32(op1)
	return overflow, carry
}

// subFlags derives the overflow and carry flags for subtraction.
// Carry is set when no borrow occurred.
func subFlags(op1, op2, result int32) (overflow, carry bool) {
	op1Sign := op1 < 0
	op2Sign := op2 < 0
	resultSign := result < 0
	overflow = op1Sign != op2Sign && op2Sign == resultSign
	carry = uint32(op1) >= uint32(op2)
	return overflow, carry
}
