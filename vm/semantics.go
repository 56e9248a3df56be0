package vm

import "fmt"

// X0Policy governs what happens when an instruction's diff targets the
// hardwired-zero register.
type X0Policy int

const (
	X0Allow X0Policy = iota
	X0Warn
	X0Deny
)

// ExecConfig is the full set of executor-level policy knobs.
type ExecConfig struct {
	OverflowMode     OverflowMode
	WriteToX0        X0Policy
	Memory           MemoryConfig
	SnapshotInterval uint64
}

// DefaultExecConfig returns the configuration described as default by the
// external interface: overflow traps, x0 writes warn, strict memory.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		OverflowMode:     OverflowTrap,
		WriteToX0:        X0Warn,
		Memory:           MemoryConfig{},
		SnapshotInterval: 1000,
	}
}

// DiffKind distinguishes the two possible mutating effects of an
// instruction.
type DiffKind int

const (
	DiffNone DiffKind = iota
	DiffRegister
	DiffMemory
)

// Diff is the single-location change an ExecUpdate carries: either a
// register write or a memory store, never both.
type Diff struct {
	Kind DiffKind

	Reg    RegisterID
	RegVal int32

	Addr    uint32
	MemVal  int32
	StoreOp StoreOp
}

// ShadowOpKind distinguishes a call-site push from a return-site pop.
type ShadowOpKind int

const (
	ShadowNone ShadowOpKind = iota
	ShadowPush
	ShadowPop
)

// ShadowOp is the shadow-stack side effect an ExecUpdate carries, if any.
type ShadowOp struct {
	Kind ShadowOpKind
	Reg  RegisterID
}

// Warning is a non-fatal note attached to an otherwise successful update.
type Warning struct {
	Message string
}

// ExecUpdate is the pure, unapplied description of one instruction's
// effect: computed by reading registers, PC, program and memory, without
// mutating any of them.
type ExecUpdate struct {
	NextPC   uint32
	Diff     Diff
	Shadow   ShadowOp
	Warnings []Warning
}

// registerDiff builds a DiffRegister update for writing val to reg,
// applying the configured x0-write policy. It returns the diff, any
// warning it generated, and an error if the policy denies the write. pc
// is used only to annotate a denied write's error.
func registerDiff(cfg ExecConfig, reg RegisterID, val int32, pc uint32) (Diff, []Warning, error) {
	diff := Diff{Kind: DiffRegister, Reg: reg, RegVal: val}
	if reg != X0 {
		return diff, nil, nil
	}
	switch cfg.WriteToX0 {
	case X0Allow:
		return diff, nil, nil
	case X0Warn:
		return diff, []Warning{{Message: fmt.Sprintf("write to x0 (value=%d) ignored", val)}}, nil
	case X0Deny:
		return Diff{}, nil, &WriteToX0Error{PC: pc, Value: val}
	default:
		return diff, nil, nil
	}
}

// computeUpdate dispatches to the family-specific handler for instr and
// returns the ExecUpdate it computes. It mutates nothing: snap, prog and
// mem are read-only from this function's perspective.
func computeUpdate(snap RegisterSnapshot, pc uint32, instr Instruction, prog *Program, mem *Memory, cfg ExecConfig) (ExecUpdate, error) {
	switch instr.Op {
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi, OpSlli, OpSrli, OpSrai:
		return execRegImm(snap, pc, instr, cfg)
	case OpAdd, OpSub, OpSll, OpSlt, OpSltu, OpXor, OpSrl, OpSra, OpOr, OpAnd:
		return execRegReg(snap, pc, instr, cfg)
	case OpLw, OpLh, OpLhu, OpLb, OpLbu:
		return execLoad(snap, pc, instr, mem, cfg)
	case OpSw, OpSh, OpSb:
		return execStore(snap, pc, instr, cfg)
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu, OpBgt, OpBle, OpBgtu, OpBleu:
		return execBranch(snap, pc, instr)
	case OpBeqz, OpBnez, OpBltz, OpBgez, OpBgtz, OpBlez:
		return execBranchZero(snap, pc, instr)
	case OpLui, OpLi:
		return execLoadImm(pc, instr, cfg)
	case OpMv, OpNot, OpNeg:
		return execUnary(snap, pc, instr, cfg)
	case OpCall, OpJal, OpJalr, OpJ, OpJr, OpRet:
		return execCallJump(snap, pc, instr, prog, cfg)
	default:
		return ExecUpdate{}, fmt.Errorf("unknown opcode %d at PC=0x%08x", instr.Op, pc)
	}
}
