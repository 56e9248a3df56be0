package vm

// execRegReg implements add, sub, sll, slt, sltu, xor, srl, sra, or, and.
// Shift ops take their shift count as the full r2 value, unmasked, so a
// count of 32 or more is an overflow condition per the configured policy.
func execRegReg(snap RegisterSnapshot, pc uint32, instr Instruction, cfg ExecConfig) (ExecUpdate, error) {
	r1 := snap.Get(instr.R1)
	r2 := snap.Get(instr.R2)

	var result int32
	var err error

	switch instr.Op {
	case OpAdd:
		result, err = checkedAdd(cfg.OverflowMode, r1, r2, pc)
	case OpSub:
		result, err = checkedSub(cfg.OverflowMode, r1, r2, pc)
	case OpSll:
		result, err = checkedShiftLeft(cfg.OverflowMode, r1, uint32(r2), pc)
	case OpSlt:
		result = boolToInt32(r1 < r2)
	case OpSltu:
		result = boolToInt32(uint32(r1) < uint32(r2))
	case OpXor:
		result = r1 ^ r2
	case OpSrl:
		result, err = checkedShiftRightLogical(cfg.OverflowMode, r1, uint32(r2), pc)
	case OpSra:
		result, err = checkedShiftRightArithmetic(cfg.OverflowMode, r1, uint32(r2), pc)
	case OpOr:
		result = r1 | r2
	case OpAnd:
		result = r1 & r2
	}
	if err != nil {
		return ExecUpdate{}, err
	}

	diff, warnings, err := registerDiff(cfg, instr.Rd, result, pc)
	if err != nil {
		return ExecUpdate{}, err
	}
	return ExecUpdate{NextPC: pc + 4, Diff: diff, Warnings: warnings}, nil
}
