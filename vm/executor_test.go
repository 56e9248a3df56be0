package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordStoreLoadProgram() *Program {
	return NewProgram([]Instruction{
		{Op: OpLi, Rd: A0, Imm: 0x100},
		{Op: OpLi, Rd: A1, Imm: int32(uint32(0xAABBCCDD))},
		{Op: OpSw, R2: A1, Offset: 0, R1: A0},
	}, nil)
}

// S1 from the end-to-end scenario table: word store/load.
func TestExecutorWordStoreLoad(t *testing.T) {
	exec := NewExecutor(wordStoreLoadProgram(), DefaultExecConfig())
	require.NoError(t, exec.Run())

	assert.Equal(t, uint64(3), exec.Executed())
	assert.Equal(t, int32(0x100), exec.Registers().Get(A0))
	assert.Equal(t, int32(uint32(0xAABBCCDD)), exec.Registers().Get(A1))

	for addr, want := range map[uint32]byte{0x100: 0xDD, 0x101: 0xCC, 0x102: 0xBB, 0x103: 0xAA} {
		got, err := exec.Memory().Load(addr, Lbu)
		require.NoError(t, err)
		assert.Equal(t, int32(want), got, "addr 0x%x", addr)
	}
}

// S2 — aligned vs unaligned store, and atomicity of a failed commit.
func TestExecutorUnalignedStoreLeavesStateUntouched(t *testing.T) {
	prog := NewProgram([]Instruction{
		{Op: OpSw, R2: A0, Offset: 1, R1: Zero},
	}, nil)
	exec := NewExecutor(prog, DefaultExecConfig())

	before := exec.Registers()
	_, err := exec.Execute()
	require.Error(t, err)
	var fault *MemoryFaultError
	require.ErrorAs(t, err, &fault)
	var unaligned *UnalignedError
	require.ErrorAs(t, err, &unaligned)
	assert.Equal(t, uint32(1), unaligned.Addr)
	assert.Equal(t, uint32(4), unaligned.Width)

	assert.Equal(t, uint64(0), exec.Executed())
	assert.True(t, before.Equal(exec.Registers()))
	_, loadErr := exec.Memory().Load(1, Lb)
	assert.Error(t, loadErr, "memory must remain empty after the aborted store")
}

func TestExecutorUnalignedStoreAllowed(t *testing.T) {
	cfg := DefaultExecConfig()
	cfg.Memory.AllowUnaligned = true
	prog := NewProgram([]Instruction{
		{Op: OpSw, R2: A0, Offset: 1, R1: Zero},
	}, nil)
	exec := NewExecutor(prog, cfg)
	_, err := exec.Execute()
	require.NoError(t, err)
}

// S4 — overflow trap / wrap / saturate.
func TestExecutorOverflowTrap(t *testing.T) {
	prog := NewProgram([]Instruction{
		{Op: OpAddi, Rd: A1, R1: A0, Imm: 1},
	}, nil)
	cfg := DefaultExecConfig()
	cfg.OverflowMode = OverflowTrap
	exec := NewExecutor(prog, cfg)
	require.NoError(t, exec.Set(A0, math.MaxInt32))

	_, err := exec.Execute()
	require.Error(t, err)
	var oe *OverflowError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, OverflowAdd, oe.Kind)
}

func TestExecutorOverflowWrap(t *testing.T) {
	prog := NewProgram([]Instruction{
		{Op: OpAddi, Rd: A1, R1: A0, Imm: 1},
	}, nil)
	cfg := DefaultExecConfig()
	cfg.OverflowMode = OverflowWrap
	exec := NewExecutor(prog, cfg)
	require.NoError(t, exec.Set(A0, math.MaxInt32))

	_, err := exec.Execute()
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), exec.Registers().Get(A1))
}

// S5 — calling convention violation on callee-saved clobber.
func TestExecutorCallingConventionViolation(t *testing.T) {
	prog := NewProgram([]Instruction{
		{Op: OpCall, LabelIdx: 2},       // 0: call sub
		{Op: OpAddi, Rd: A0, R1: Zero},  // 1: unreachable padding
		{Op: OpLi, Rd: S0, Imm: 99},     // 2: sub: clobbers s0
		{Op: OpRet},                     // 3: ret
	}, map[string]int{"sub": 2})
	exec := NewExecutor(prog, DefaultExecConfig())

	_, err := exec.Execute() // call
	require.NoError(t, err)
	_, err = exec.Execute() // li s0, 99
	require.NoError(t, err)

	_, err = exec.Execute() // ret
	require.Error(t, err)
	var cce *CallingConventionError
	require.ErrorAs(t, err, &cce)
	require.Len(t, cce.Violations, 1)
	assert.Equal(t, ViolationModifiedRegister, cce.Violations[0].Kind)
	assert.Equal(t, S0, cce.Violations[0].Reg)
	assert.Equal(t, int32(0), cce.Violations[0].Pre)
	assert.Equal(t, int32(99), cce.Violations[0].Post)
}

func TestExecutorCallReturnMatch(t *testing.T) {
	// Subroutine placed ahead of the call, skipped by an unconditional
	// jump, so falling through the call's continuation never re-enters it.
	prog := NewProgram([]Instruction{
		{Op: OpJ, LabelIdx: 3},                          // 0: j main
		{Op: OpLi, Rd: T0, Imm: 7},                        // 1: sub: (callee-saved-clean body)
		{Op: OpRet},                                      // 2: ret
		{Op: OpCall, LabelIdx: 1},                         // 3: main: call sub
		{Op: OpAddi, Rd: A0, R1: A0, Imm: 1},              // 4: continuation
	}, map[string]int{"sub": 1, "main": 3})
	exec := NewExecutor(prog, DefaultExecConfig())
	require.NoError(t, exec.Run())
	assert.Equal(t, uint64(5), exec.Executed())
	assert.Equal(t, int32(1), exec.Registers().Get(A0))
	assert.Equal(t, int32(7), exec.Registers().Get(T0))
}

func loopProgram(iterations int32) *Program {
	return NewProgram([]Instruction{
		{Op: OpLi, Rd: T0, Imm: iterations},
		{Op: OpAddi, Rd: T0, R1: T0, Imm: -1},
		{Op: OpBnez, R1: T0, LabelIdx: 1},
	}, map[string]int{"loop": 1})
}

// Invariant 1 — determinism.
func TestExecutorDeterminism(t *testing.T) {
	cfg := DefaultExecConfig()
	e1 := NewExecutor(loopProgram(50), cfg)
	e2 := NewExecutor(loopProgram(50), cfg)
	require.NoError(t, e1.Run())
	require.NoError(t, e2.Run())
	assert.True(t, e1.Registers().Equal(e2.Registers()))
	assert.Equal(t, e1.Executed(), e2.Executed())
}

// Invariant 3 / S6 — snapshot correctness and revert round trip across a
// snapshot-interval boundary.
func TestExecutorRevertRoundTrip(t *testing.T) {
	cfg := DefaultExecConfig()
	prog := loopProgram(800) // 1 + 800*2 = 1601 instructions executed

	exec := NewExecutor(prog, cfg)
	states := make([]RegisterSnapshot, 0, 1601)
	for i := 0; i < 1601; i++ {
		_, err := exec.Execute()
		require.NoError(t, err)
		states = append(states, exec.Registers())
	}
	require.Equal(t, uint64(1601), exec.Executed())

	// Revert one step: must match the state captured after instruction 1599
	// (states is 0-indexed by executed-count-1).
	_, err := exec.Revert()
	require.NoError(t, err)
	assert.Equal(t, uint64(1600), exec.Executed())
	assert.True(t, states[1599].Equal(exec.Registers()))

	// Revert across the snapshot-interval boundary at 1000.
	for exec.Executed() > 999 {
		_, err := exec.Revert()
		require.NoError(t, err)
	}
	assert.True(t, states[998].Equal(exec.Registers()))

	// Revert all the way back to the origin.
	for exec.Executed() > 0 {
		_, err := exec.Revert()
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(0), exec.Executed())

	_, err = exec.Revert()
	var startErr *StartReachedError
	require.ErrorAs(t, err, &startErr)
}

// Invariant 9 — x0 hardwired read-as-zero under Allow.
func TestExecutorX0AlwaysReadsZero(t *testing.T) {
	cfg := DefaultExecConfig()
	cfg.WriteToX0 = X0Allow
	prog := NewProgram([]Instruction{
		{Op: OpAddi, Rd: Zero, R1: Zero, Imm: 123},
	}, nil)
	exec := NewExecutor(prog, cfg)
	_, err := exec.Execute()
	require.NoError(t, err)
	assert.Equal(t, int32(0), exec.Registers().Get(Zero))
}

func TestExecutorX0DenyFails(t *testing.T) {
	cfg := DefaultExecConfig()
	cfg.WriteToX0 = X0Deny
	prog := NewProgram([]Instruction{
		{Op: OpAddi, Rd: Zero, R1: Zero, Imm: 123},
	}, nil)
	exec := NewExecutor(prog, cfg)
	before := exec.Registers()
	_, err := exec.Execute()
	require.Error(t, err)
	var wzErr *WriteToX0Error
	require.ErrorAs(t, err, &wzErr)
	assert.Equal(t, uint64(0), exec.Executed())
	assert.True(t, before.Equal(exec.Registers()))
}

func TestExecutorFinished(t *testing.T) {
	prog := NewProgram([]Instruction{{Op: OpLi, Rd: A0, Imm: 1}}, nil)
	exec := NewExecutor(prog, DefaultExecConfig())
	require.NoError(t, exec.Run())
	_, err := exec.Execute()
	var fin *FinishedError
	require.ErrorAs(t, err, &fin)
}
