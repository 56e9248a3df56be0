package vm

import "fmt"

// RegisterID identifies one of the 32 RV32I architectural registers.
// It is a closed enumeration: the numeric value is the x-register
// index (0..31), which doubles as the array index into a
// RegisterSnapshot.
type RegisterID int

// The 32 general purpose registers, named by ABI convention.
const (
	X0 RegisterID = iota
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6

	// NumRegisters is the number of architectural registers.
	NumRegisters = 32
)

// Zero is the hardwired-zero register, a synonym of X0.
const Zero = X0

// FP is the frame pointer, a synonym of S0.
const FP = S0

// abiNames gives the canonical ABI name for each register, in index order.
var abiNames = [NumRegisters]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// String returns the canonical ABI name of the register (e.g. "sp").
func (r RegisterID) String() string {
	if r < 0 || int(r) >= NumRegisters {
		return fmt.Sprintf("x%d(invalid)", int(r))
	}
	return abiNames[r]
}

// IsValid reports whether r is within the closed enumeration.
func (r RegisterID) IsValid() bool {
	return r >= 0 && int(r) < NumRegisters
}

// ParseRegister resolves a register by either its ABI name ("sp", "a0",
// "fp") or its numeric alias ("x2"). It accepts "zero" as a synonym of x0.
func ParseRegister(name string) (RegisterID, error) {
	if name == "fp" {
		return FP, nil
	}
	for i, abi := range abiNames {
		if abi == name {
			return RegisterID(i), nil
		}
	}
	if len(name) >= 2 && name[0] == 'x' {
		n := 0
		for _, c := range name[1:] {
			if c < '0' || c > '9' {
				return 0, fmt.Errorf("invalid register name %q", name)
			}
			n = n*10 + int(c-'0')
		}
		if n < 0 || n >= NumRegisters {
			return 0, fmt.Errorf("register index out of range: %q", name)
		}
		return RegisterID(n), nil
	}
	return 0, fmt.Errorf("invalid register name %q", name)
}

// calleeSaved lists the registers whose value must survive a call/return
// pair unchanged: sp and s0..s11.
var calleeSaved = []RegisterID{SP, S0, S1, S2, S3, S4, S5, S6, S7, S8, S9, S10, S11}

// RegisterSnapshot is the full machine-visible register state: the 32
// architectural registers plus the program counter.
type RegisterSnapshot struct {
	Regs [NumRegisters]int32
	PC   uint32
}

// Get returns the value of a register. Reading X0 always returns 0,
// regardless of what was last stored there.
func (s RegisterSnapshot) Get(reg RegisterID) int32 {
	if reg == X0 {
		return 0
	}
	return s.Regs[reg]
}

// Set stores a value for a register. Callers wanting X0-write-policy
// enforcement must check that themselves; Set performs the raw store
// used internally so that a later Get still reads back zero for X0 it is
// never actually mutated here).
func (s *RegisterSnapshot) Set(reg RegisterID, val int32) {
	if reg == X0 {
		return
	}
	s.Regs[reg] = val
}

// Equal reports whether two snapshots hold identical register and PC state.
func (s RegisterSnapshot) Equal(other RegisterSnapshot) bool {
	if s.PC != other.PC {
		return false
	}
	return s.Regs == other.Regs
}

// CalleeSavedDiff returns the subset of {sp, s0..s11} whose values differ
// between s (the expected/pre-call state) and other (the observed state
// at return time).
func (s RegisterSnapshot) CalleeSavedDiff(other RegisterSnapshot) []RegisterID {
	var diffs []RegisterID
	for _, reg := range calleeSaved {
		if s.Get(reg) != other.Get(reg) {
			diffs = append(diffs, reg)
		}
	}
	return diffs
}

// InitialSnapshot returns the machine-reset register state: all registers
// zero except sp, which starts at 0x40000000.
func InitialSnapshot() RegisterSnapshot {
	var s RegisterSnapshot
	s.Set(SP, int32(uint32(0x40000000)))
	return s
}
