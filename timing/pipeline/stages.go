package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/mem"
)

// FetchStage reads instruction words through the process's virtual
// memory view.
type FetchStage struct {
	vm *mem.VirtualMemory
}

// NewFetchStage creates a fetch stage.
func NewFetchStage(vm *mem.VirtualMemory) *FetchStage {
	return &FetchStage{vm: vm}
}

// Fetch reads the instruction word at pc.
func (s *FetchStage) Fetch(pc uint32) (uint32, error) {
	word, err := s.vm.FetchWord(pc)
	if err != nil {
		return 0, err
	}
	return uint32(word), nil
}

// DecodeStage turns instruction words into decoded instructions with
// control signals and register operands.
type DecodeStage struct {
	decoder *insts.Decoder
	control *emu.ControlUnit
	regs    *emu.RegisterBank
}

// NewDecodeStage creates a decode stage.
func NewDecodeStage(regs *emu.RegisterBank) *DecodeStage {
	return &DecodeStage{
		decoder: insts.NewDecoder(),
		control: emu.NewControlUnit(),
		regs:    regs,
	}
}

// Decode fills the IDEX register from a fetched instruction word.
func (s *DecodeStage) Decode(ifid *IFIDRegister, idex *IDEXRegister) error {
	inst := s.decoder.Decode(ifid.Word)
	ctrl, err := s.control.Decode(inst)
	if err != nil {
		return err
	}

	rs1Val, err := s.regs.Read(int(inst.Rs1))
	if err != nil {
		return err
	}
	rs2Val, err := s.regs.Read(int(inst.Rs2))
	if err != nil {
		return err
	}

	idex.Valid = true
	idex.PC = ifid.PC
	idex.Inst = inst
	idex.Ctrl = ctrl
	idex.Rs1Value = rs1Val
	idex.Rs2Value = rs2Val
	idex.Rd = inst.Rd
	idex.Rs1 = inst.Rs1
	idex.Rs2 = inst.Rs2
	return nil
}

// ExecuteStage runs the ALU and resolves branch direction and targets.
type ExecuteStage struct {
	alu *emu.ALU
}

// NewExecuteStage creates an execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{alu: emu.NewALU()}
}

// Execute fills the EXMEM register from the IDEX register, using the
// forwarded operand values picked by the hazard unit.
func (s *ExecuteStage) Execute(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	operandA, operandB int32,
) {
	ctrl := idex.Ctrl

	opA := operandA
	if ctrl.PCIsOperandA {
		opA = int32(idex.PC)
	}
	opB := operandB
	if ctrl.ALUSrcImm {
		opB = idex.Inst.Imm
	}

	result := s.alu.Execute(opA, opB, ctrl.ALUOp)

	exmem.Valid = true
	exmem.PC = idex.PC
	exmem.Inst = idex.Inst
	exmem.ALUResult = result.Value
	exmem.StoreValue = operandB
	exmem.Rd = idex.Rd
	exmem.MemRead = ctrl.MemRead
	exmem.MemWrite = ctrl.MemWrite
	exmem.RegWrite = ctrl.RegWrite
	exmem.MemToReg = ctrl.MemToReg

	if ctrl.Branch && s.alu.Compare(operandA, operandB, ctrl.BranchCond) {
		exmem.BranchTaken = true
		exmem.BranchTarget = idex.PC + uint32(idex.Inst.Imm)
	}
	if ctrl.Jump {
		exmem.BranchTaken = true
		if idex.Inst.Opcode == insts.OpcodeJALR {
			exmem.BranchTarget = uint32(result.Value) &^ 1
		} else {
			exmem.BranchTarget = idex.PC + uint32(idex.Inst.Imm)
		}
	}
	if ctrl.LinkToReg {
		exmem.ALUResult = int32(idex.PC + 4)
	}
}

// MemoryStage performs loads and stores, optionally through a data
// cache placed in front of physical memory.
type MemoryStage struct {
	vm     *mem.VirtualMemory
	dcache *mem.Cache
}

// NewMemoryStage creates a memory stage with an uncached data path.
func NewMemoryStage(vm *mem.VirtualMemory) *MemoryStage {
	return &MemoryStage{vm: vm}
}

// SetDCache routes loads and stores through a data cache.
func (s *MemoryStage) SetDCache(dcache *mem.Cache) {
	s.dcache = dcache
}

// DCache returns the data cache, or nil when the path is uncached.
func (s *MemoryStage) DCache() *mem.Cache {
	return s.dcache
}

// Access performs the memory operation of the instruction in EXMEM, if
// any, and returns the loaded value and the access latency in cycles.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (int32, uint64, error) {
	switch {
	case exmem.MemRead:
		return s.load(uint32(exmem.ALUResult))
	case exmem.MemWrite:
		latency, err := s.store(uint32(exmem.ALUResult), exmem.StoreValue)
		return 0, latency, err
	default:
		return 0, 1, nil
	}
}

func (s *MemoryStage) load(va uint32) (int32, uint64, error) {
	if s.dcache == nil {
		value, err := s.vm.ReadWord(va)
		return value, 1, err
	}
	pa, err := s.vm.TranslateRead(va)
	if err != nil {
		return 0, 1, err
	}
	value, result := s.dcache.Read(pa)
	return value, result.Latency, nil
}

func (s *MemoryStage) store(va uint32, value int32) (uint64, error) {
	if s.dcache == nil {
		return 1, s.vm.WriteWord(va, value)
	}
	pa, err := s.vm.TranslateWrite(va)
	if err != nil {
		return 1, err
	}
	result := s.dcache.Write(pa, value)
	return result.Latency, nil
}

// WritebackStage retires instructions into the register file.
type WritebackStage struct {
	regs *emu.RegisterBank
}

// NewWritebackStage creates a writeback stage.
func NewWritebackStage(regs *emu.RegisterBank) *WritebackStage {
	return &WritebackStage{regs: regs}
}

// Writeback writes the result of the instruction in MEMWB, if it
// produces one.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) error {
	if !memwb.Valid || !memwb.RegWrite {
		return nil
	}
	value := memwb.ALUResult
	if memwb.MemToReg {
		value = memwb.MemData
	}
	return s.regs.Write(int(memwb.Rd), value)
}
