// Package benchmarks provides microbenchmark programs and a harness
// for comparing the timing behavior of the core models.
package benchmarks

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark.
	Name string

	// Description explains what the benchmark measures.
	Description string

	// Setup prepares register state before the run.
	Setup func(regs *emu.RegisterBank)

	// Program is the RV32 machine code to execute.
	Program []uint32

	// ExpectedRegs maps register indices to the values they must hold
	// after the run.
	ExpectedRegs map[int]int32
}

// Microbenchmarks returns the standard set of microbenchmarks. Each
// one targets a specific timing characteristic.
func Microbenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		loadUse(),
		branchTaken(),
		countedLoop(),
	}
}

// arithmeticSequential tests throughput with independent operations.
// No hazards, so the pipelined model should approach one cycle per
// instruction.
func arithmeticSequential() Benchmark {
	program := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		rd := uint8(i%5 + 1)
		program = append(program, insts.ADDI(rd, rd, 1))
	}
	program = append(program, insts.EBREAK())

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDIs across five registers",
		Program:     program,
		ExpectedRegs: map[int]int32{
			1: 4, 2: 4, 3: 4, 4: 4, 5: 4,
		},
	}
}

// dependencyChain tests forwarding with back-to-back RAW hazards.
func dependencyChain() Benchmark {
	program := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		program = append(program, insts.ADDI(1, 1, 1))
	}
	program = append(program, insts.EBREAK())

	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs on one register",
		Program:      program,
		ExpectedRegs: map[int]int32{1: 20},
	}
}

// memorySequential streams stores then loads over one page.
func memorySequential() Benchmark {
	program := []uint32{
		insts.LUI(1, 1), // data segment base
	}
	for i := 0; i < 8; i++ {
		program = append(program, insts.ADDI(2, 0, int32(i+1)))
		program = append(program, insts.SW(2, 1, int32(i*4)))
	}
	for i := 0; i < 8; i++ {
		program = append(program, insts.LW(3, 1, int32(i*4)))
		program = append(program, insts.ADD(4, 4, 3))
	}
	program = append(program, insts.EBREAK())

	return Benchmark{
		Name:         "memory_sequential",
		Description:  "8 stores then 8 loads with accumulation",
		Program:      program,
		ExpectedRegs: map[int]int32{4: 36},
	}
}

// loadUse stresses the load-use stall with loads feeding the next
// instruction.
func loadUse() Benchmark {
	program := []uint32{
		insts.LUI(1, 1),
		insts.ADDI(2, 0, 5),
		insts.SW(2, 1, 0),
	}
	for i := 0; i < 6; i++ {
		program = append(program, insts.LW(3, 1, 0))
		program = append(program, insts.ADD(4, 4, 3))
	}
	program = append(program, insts.EBREAK())

	return Benchmark{
		Name:         "load_use",
		Description:  "6 loads each immediately consumed",
		Program:      program,
		ExpectedRegs: map[int]int32{4: 30},
	}
}

// branchTaken stresses flush behavior with taken branches.
func branchTaken() Benchmark {
	program := make([]uint32, 0, 13)
	for i := 0; i < 6; i++ {
		program = append(program, insts.BEQ(0, 0, 8))
		program = append(program, insts.ADDI(5, 0, 99)) // squashed
	}
	program = append(program, insts.ADDI(6, 0, 1))
	program = append(program, insts.EBREAK())

	return Benchmark{
		Name:         "branch_taken",
		Description:  "6 always-taken branches each skipping one instruction",
		Program:      program,
		ExpectedRegs: map[int]int32{5: 0, 6: 1},
	}
}

// countedLoop runs a summation loop, mixing arithmetic with a
// backward branch taken on every iteration but the last.
func countedLoop() Benchmark {
	return Benchmark{
		Name:        "counted_loop",
		Description: "sum 10..1 with a countdown loop",
		Program: []uint32{
			insts.ADDI(1, 0, 10),
			insts.ADD(2, 2, 1),
			insts.ADDI(1, 1, -1),
			insts.BNE(1, 0, -8),
			insts.EBREAK(),
		},
		ExpectedRegs: map[int]int32{1: 0, 2: 55},
	}
}
