package vm

// execCallJump implements call, jal, jalr, j, jr, ret per the table in
// §4.4: call and jal/jalr link the return address and push a shadow
// frame; j is a plain jump untouched by the shadow stack; jr/ret pop a
// frame. Bare jal/jalr forms (rd defaulting to ra) are expanded by the
// assembler before reaching here, so Rd is always concrete.
func execCallJump(snap RegisterSnapshot, pc uint32, instr Instruction, prog *Program, cfg ExecConfig) (ExecUpdate, error) {
	switch instr.Op {
	case OpCall:
		return linkAndPush(pc, RA, uint32(instr.LabelIdx)*4, cfg)
	case OpJal:
		return linkAndPush(pc, instr.Rd, uint32(instr.LabelIdx)*4, cfg)
	case OpJalr:
		target, err := checkedAdd(cfg.OverflowMode, snap.Get(instr.R1), instr.Offset, pc)
		if err != nil {
			return ExecUpdate{}, err
		}
		return linkAndPush(pc, instr.Rd, uint32(target), cfg)
	case OpJ:
		return ExecUpdate{NextPC: uint32(instr.LabelIdx) * 4}, nil
	case OpJr:
		return ExecUpdate{
			NextPC: uint32(snap.Get(instr.R1)),
			Shadow: ShadowOp{Kind: ShadowPop, Reg: instr.R1},
		}, nil
	case OpRet:
		return ExecUpdate{
			NextPC: uint32(snap.Get(RA)),
			Shadow: ShadowOp{Kind: ShadowPop, Reg: RA},
		}, nil
	default:
		return ExecUpdate{}, nil
	}
}

// linkAndPush builds the ExecUpdate common to call, jal and jalr: the
// link register receives pc+4 and a Push shadow-op names that register.
func linkAndPush(pc uint32, linkReg RegisterID, target uint32, cfg ExecConfig) (ExecUpdate, error) {
	diff, warnings, err := registerDiff(cfg, linkReg, int32(pc+4), pc)
	if err != nil {
		return ExecUpdate{}, err
	}
	return ExecUpdate{
		NextPC:   target,
		Diff:     diff,
		Shadow:   ShadowOp{Kind: ShadowPush, Reg: linkReg},
		Warnings: warnings,
	}, nil
}
