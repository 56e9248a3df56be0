package vm

// effectiveAddress computes add(offset, r1) per the load/store family's
// addressing rule, under the configured overflow policy.
func effectiveAddress(snap RegisterSnapshot, pc uint32, instr Instruction, cfg ExecConfig) (uint32, error) {
	addr, err := checkedAdd(cfg.OverflowMode, instr.Offset, snap.Get(instr.R1), pc)
	if err != nil {
		return 0, err
	}
	return uint32(addr), nil
}

// execLoad implements lw, lh, lhu, lb, lbu. Unlike stores, a load's
// effect is a register write, so the memory read happens here (against
// the read-only snapshot of Memory) to produce the value for the diff;
// there is nothing left to do at commit time but apply that diff.
func execLoad(snap RegisterSnapshot, pc uint32, instr Instruction, mem *Memory, cfg ExecConfig) (ExecUpdate, error) {
	addr, err := effectiveAddress(snap, pc, instr, cfg)
	if err != nil {
		return ExecUpdate{}, err
	}

	var op LoadOp
	switch instr.Op {
	case OpLw:
		op = Lw
	case OpLh:
		op = Lh
	case OpLhu:
		op = Lhu
	case OpLb:
		op = Lb
	case OpLbu:
		op = Lbu
	}

	val, err := mem.Load(addr, op)
	if err != nil {
		return ExecUpdate{}, &MemoryFaultError{PC: pc, Addr: addr, Err: err}
	}

	diff, warnings, err := registerDiff(cfg, instr.Rd, val, pc)
	if err != nil {
		return ExecUpdate{}, err
	}
	return ExecUpdate{NextPC: pc + 4, Diff: diff, Warnings: warnings}, nil
}

// execStore implements sw, sh, sb. The write itself is deferred to
// commit (§4.3 step 3): here we only describe it as a DiffMemory.
func execStore(snap RegisterSnapshot, pc uint32, instr Instruction, cfg ExecConfig) (ExecUpdate, error) {
	addr, err := effectiveAddress(snap, pc, instr, cfg)
	if err != nil {
		return ExecUpdate{}, err
	}

	var op StoreOp
	switch instr.Op {
	case OpSw:
		op = Sw
	case OpSh:
		op = Sh
	case OpSb:
		op = Sb
	}

	val := snap.Get(instr.R2)
	diff := Diff{Kind: DiffMemory, Addr: addr, MemVal: val, StoreOp: op}
	return ExecUpdate{NextPC: pc + 4, Diff: diff}, nil
}
