package vm

import "fmt"

// Executor is the top-level mutable execution state: current PC,
// executed-instruction counter, the program being run, the register
// file, memory, a periodic snapshot map, the shadow call stack, and the
// policy configuration. It is single-threaded and synchronous; no method
// blocks, suspends, or yields.
type Executor struct {
	config ExecConfig

	program  *Program
	regs     RegisterSnapshot
	memory   *Memory
	executed uint64

	// snapshots maps executed-count to the full register state that
	// produced the instruction at that count, recorded at every multiple
	// of config.SnapshotInterval that has been reached.
	snapshots map[uint64]RegisterSnapshot

	stack *ShadowStack
}

// NewExecutor builds a fresh executor over program with the given
// configuration. Initial state: pc=0, executed=0, all registers zero
// except sp=0x40000000, one snapshot at key 0, and one shadow frame
// representing the program entry (ra_register = ra).
func NewExecutor(program *Program, cfg ExecConfig) *Executor {
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 1000
	}
	initial := InitialSnapshot()

	e := &Executor{
		config:    cfg,
		program:   program,
		regs:      initial,
		memory:    NewMemory(cfg.Memory),
		executed:  0,
		snapshots: map[uint64]RegisterSnapshot{0: initial},
		stack:     NewShadowStack(),
	}
	e.stack.Push(FnCallFrame{Snapshot: initial, Executed: 0, RAReg: RA})
	return e
}

// PC returns the current program counter.
func (e *Executor) PC() uint32 { return e.regs.PC }

// Executed returns the number of instructions successfully committed.
func (e *Executor) Executed() uint64 { return e.executed }

// Registers returns a copy of the current register state.
func (e *Executor) Registers() RegisterSnapshot { return e.regs }

// Memory returns the executor's memory subsystem, for inspection.
func (e *Executor) Memory() *Memory { return e.memory }

// Program returns the program being executed, for label/address lookups.
func (e *Executor) Program() *Program { return e.program }

// Config returns the executor's policy configuration, for rebuilding a
// fresh executor over the same program (a debugger "run" from scratch).
func (e *Executor) Config() ExecConfig { return e.config }

// ShadowDepth reports the number of open shadow-stack frames.
func (e *Executor) ShadowDepth() int { return e.stack.Len() }

// ShadowFrames returns a copy of the open shadow-stack frames, for
// backtrace display.
func (e *Executor) ShadowFrames() []FnCallFrame { return e.stack.Frames() }

// Current returns the instruction about to execute, or (_, false) if the
// PC is past the end of the program.
func (e *Executor) Current() (Instruction, bool) {
	return e.program.At(e.regs.PC)
}

// Set performs an external register mutation (a debugger "set register"
// command), honoring the x0-write policy exactly as an instruction diff
// would.
func (e *Executor) Set(reg RegisterID, val int32) error {
	_, _, err := registerDiff(e.config, reg, val, e.regs.PC)
	if err != nil {
		return err
	}
	e.regs.Set(reg, val)
	return nil
}

// Execute computes and commits the effect of the instruction at the
// current PC. On any error the executor's observable state is left
// byte-identical to what it was before the call.
func (e *Executor) Execute() (ExecUpdate, error) {
	instr, ok := e.Current()
	if !ok {
		return ExecUpdate{}, &FinishedError{PC: e.regs.PC}
	}

	update, err := computeUpdate(e.regs, e.regs.PC, instr, e.program, e.memory, e.config)
	if err != nil {
		return ExecUpdate{}, err
	}

	if err := e.commit(update); err != nil {
		return ExecUpdate{}, err
	}
	return update, nil
}

// commit applies update atomically per §4.3. The shadow-stack pop
// implied by a Pop update is validated here (and fails the whole commit
// if the calling convention was violated) but its mutation is deferred
// until after the diff has been applied successfully, so a memory-write
// failure on a pop-carrying instruction never loses the frame: the
// deliberately stricter alternative the source's design left ambiguous.
func (e *Executor) commit(update ExecUpdate) error {
	if update.Shadow.Kind == ShadowPop {
		if err := e.stack.checkReturn(update.Shadow.Reg, e.regs, e.regs.PC); err != nil {
			return err
		}
	}

	preCommit := e.regs
	preExecuted := e.executed

	switch update.Diff.Kind {
	case DiffMemory:
		if err := e.memory.Store(update.Diff.Addr, update.Diff.MemVal, update.Diff.StoreOp); err != nil {
			return &MemoryFaultError{PC: preCommit.PC, Addr: update.Diff.Addr, Err: err}
		}
	case DiffRegister:
		e.regs.Set(update.Diff.Reg, update.Diff.RegVal)
	}

	if preExecuted%e.config.SnapshotInterval == 0 {
		if existing, ok := e.snapshots[preExecuted]; ok {
			if !existing.Equal(preCommit) {
				panic(fmt.Sprintf("vm: snapshot determinism violated at executed=%d", preExecuted))
			}
		} else {
			e.snapshots[preExecuted] = preCommit
		}
	}

	if update.Shadow.Kind == ShadowPush {
		frameSnap := preCommit
		frameSnap.Set(update.Shadow.Reg, update.Diff.RegVal)
		e.stack.Push(FnCallFrame{
			Snapshot: frameSnap,
			Executed: preExecuted,
			RAReg:    update.Shadow.Reg,
		})
	} else if update.Shadow.Kind == ShadowPop {
		e.stack.Pop()
	}

	e.regs.PC = update.NextPC
	e.executed = preExecuted + 1
	return nil
}

// Run iterates Execute until Finished (converted to success) or any
// other error, which aborts the loop and is returned to the caller.
func (e *Executor) Run() error {
	for {
		_, err := e.Execute()
		if err == nil {
			continue
		}
		if _, finished := err.(*FinishedError); finished {
			return nil
		}
		return err
	}
}

// Revert rewinds the executor's registers, PC and executed count to the
// state they had immediately after executing instruction executed-1, per
// §4.5. Memory is not reverted: bytes written by the undone instructions
// keep their values. A replay failure or a missing snapshot panics.
func (e *Executor) Revert() (ExecUpdate, error) {
	if e.executed == 0 {
		return ExecUpdate{}, &StartReachedError{}
	}

	target := e.executed - 1
	base := target - (target % e.config.SnapshotInterval)

	snap, ok := e.snapshots[base]
	if !ok {
		panic(fmt.Sprintf("vm: missing snapshot at executed=%d", base))
	}

	e.regs = snap
	e.executed = base
	e.stack.TruncateAfter(target)

	for e.executed < target {
		if _, err := e.Execute(); err != nil {
			panic(fmt.Sprintf("vm: deterministic replay failed during revert: %v", err))
		}
	}

	instr, ok := e.Current()
	if !ok {
		return ExecUpdate{}, nil
	}
	return computeUpdate(e.regs, e.regs.PC, instr, e.program, e.memory, e.config)
}

// Clone returns a fully independent copy of the executor: its own
// memory, snapshots and shadow stack, sharing only the immutable
// Program.
func (e *Executor) Clone() *Executor {
	snapshotsCopy := make(map[uint64]RegisterSnapshot, len(e.snapshots))
	for k, v := range e.snapshots {
		snapshotsCopy[k] = v
	}
	return &Executor{
		config:    e.config,
		program:   e.program,
		regs:      e.regs,
		memory:    e.memory.clone(),
		executed:  e.executed,
		snapshots: snapshotsCopy,
		stack:     e.stack.Clone(),
	}
}
