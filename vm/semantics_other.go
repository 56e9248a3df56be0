package vm

// execLoadImm implements lui and li. Neither reads a register.
func execLoadImm(pc uint32, instr Instruction, cfg ExecConfig) (ExecUpdate, error) {
	var val int32
	switch instr.Op {
	case OpLui:
		val = instr.Imm << 12
	case OpLi:
		val = instr.Imm
	}
	diff, warnings, err := registerDiff(cfg, instr.Rd, val, pc)
	if err != nil {
		return ExecUpdate{}, err
	}
	return ExecUpdate{NextPC: pc + 4, Diff: diff, Warnings: warnings}, nil
}

// execUnary implements mv, not, neg.
func execUnary(snap RegisterSnapshot, pc uint32, instr Instruction, cfg ExecConfig) (ExecUpdate, error) {
	r1 := snap.Get(instr.R1)
	var val int32
	switch instr.Op {
	case OpMv:
		val = r1
	case OpNot:
		val = ^r1
	case OpNeg:
		val = -r1
	}
	diff, warnings, err := registerDiff(cfg, instr.Rd, val, pc)
	if err != nil {
		return ExecUpdate{}, err
	}
	return ExecUpdate{NextPC: pc + 4, Diff: diff, Warnings: warnings}, nil
}
