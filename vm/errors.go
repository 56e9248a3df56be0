package vm

import "fmt"

// WriteToX0Error reports an attempt to write a non-zero value to the
// hardwired-zero register while the configured policy forbids it.
type WriteToX0Error struct {
	PC    uint32
	Value int32
}

func (e *WriteToX0Error) Error() string {
	return fmt.Sprintf("write to x0 at PC=0x%08x (value=%d)", e.PC, e.Value)
}

// OverflowKind names the arithmetic family that overflowed, for
// OverflowError.
type OverflowKind int

const (
	OverflowAdd OverflowKind = iota
	OverflowSub
	OverflowShiftLeft
	OverflowShiftRight
)

func (k OverflowKind) String() string {
	switch k {
	case OverflowAdd:
		return "add"
	case OverflowSub:
		return "sub"
	case OverflowShiftLeft:
		return "shift-left"
	case OverflowShiftRight:
		return "shift-right"
	default:
		return "unknown"
	}
}

// OverflowError reports a signed-arithmetic overflow trapped under
// OverflowTrap policy.
type OverflowError struct {
	PC       uint32
	Kind     OverflowKind
	Operands [2]int32
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("arithmetic overflow (%s) at PC=0x%08x: operands=%d,%d",
		e.Kind, e.PC, e.Operands[0], e.Operands[1])
}

// ViolationKind distinguishes the two ways a return-site instruction can
// break the calling convention.
type ViolationKind int

const (
	// ViolationModifiedRegister: a callee-saved register held a
	// different value at return than it did at call time.
	ViolationModifiedRegister ViolationKind = iota
	// ViolationReturnViaOtherReg: the returning register does not match
	// the link register the matching call used.
	ViolationReturnViaOtherReg
)

// Violation is one entry in a CallingConventionError's bundled list.
// Only the fields relevant to Kind are meaningful.
type Violation struct {
	Kind ViolationKind

	// For ViolationModifiedRegister.
	Reg  RegisterID
	Pre  int32
	Post int32

	// For ViolationReturnViaOtherReg.
	SaveReg  RegisterID
	OtherReg RegisterID
}

func (v Violation) String() string {
	switch v.Kind {
	case ViolationModifiedRegister:
		return fmt.Sprintf("%s modified (was %d, now %d)", v.Reg, v.Pre, v.Post)
	case ViolationReturnViaOtherReg:
		return fmt.Sprintf("returned via %s instead of %s", v.OtherReg, v.SaveReg)
	default:
		return "unknown violation"
	}
}

// CallingConventionError reports one or more calling-convention
// violations detected at a single return-site instruction: any
// callee-saved registers clobbered by the callee, and/or a return
// through a register other than the one the matching call saved into.
type CallingConventionError struct {
	PC         uint32
	Violations []Violation
}

func (e *CallingConventionError) Error() string {
	return fmt.Sprintf("calling convention violated at PC=0x%08x: %v", e.PC, e.Violations)
}

// BreakpointError reports a stop at an address carrying an enabled
// breakpoint. The executor itself never returns it; Execute has no notion
// of breakpoints.
type BreakpointError struct {
	PC uint32
}

func (e *BreakpointError) Error() string {
	return fmt.Sprintf("breakpoint hit at PC=0x%08x", e.PC)
}

// FinishedError indicates execution has run off the end of the program.
type FinishedError struct {
	PC uint32
}

func (e *FinishedError) Error() string {
	return fmt.Sprintf("program finished: PC=0x%08x is past the last instruction", e.PC)
}

// StartReachedError is returned by Revert when asked to step back past the
// very first instruction.
type StartReachedError struct{}

func (e *StartReachedError) Error() string {
	return "already at the start of execution, nothing to revert"
}

// MemoryFaultError wraps an error from the Memory subsystem (Unaligned or
// Uninitialized) with the PC at which the faulting instruction executed.
type MemoryFaultError struct {
	PC   uint32
	Addr uint32
	Err  error
}

func (e *MemoryFaultError) Error() string {
	return fmt.Sprintf("memory fault at PC=0x%08x, address=0x%08x: %v", e.PC, e.Addr, e.Err)
}

func (e *MemoryFaultError) Unwrap() error {
	return e.Err
}

// InvalidInstructionError reports a fetch at an address that is not a
// valid instruction boundary (unaligned or out of program bounds).
// Execute does not return it: any PC that does not address an
// instruction is reported as FinishedError.
type InvalidInstructionError struct {
	PC uint32
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction fetch at PC=0x%08x", e.PC)
}
