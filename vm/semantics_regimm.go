package vm

// execRegImm implements addi, slti, sltiu, xori, ori, andi, slli, srli,
// srai: read r1, combine with imm, write rd, PC <- PC+4.
func execRegImm(snap RegisterSnapshot, pc uint32, instr Instruction, cfg ExecConfig) (ExecUpdate, error) {
	r1 := snap.Get(instr.R1)
	imm := instr.Imm

	var result int32
	var err error

	switch instr.Op {
	case OpAddi:
		result, err = checkedAdd(cfg.OverflowMode, r1, imm, pc)
	case OpSlti:
		result = boolToInt32(r1 < imm)
	case OpSltiu:
		result = boolToInt32(uint32(r1) < uint32(imm))
	case OpXori:
		result = r1 ^ imm
	case OpOri:
		result = r1 | imm
	case OpAndi:
		result = r1 & imm
	case OpSlli:
		result, err = checkedShiftLeft(cfg.OverflowMode, r1, uint32(imm)&0x1f, pc)
	case OpSrli:
		result, err = checkedShiftRightLogical(cfg.OverflowMode, r1, uint32(imm)&0x1f, pc)
	case OpSrai:
		result, err = checkedShiftRightArithmetic(cfg.OverflowMode, r1, uint32(imm)&0x1f, pc)
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

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
