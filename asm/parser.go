package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rv32ttd/rv32ttd/vm"
)

// parseRegisterToken resolves a register token's literal text (verbatim,
// as produced by the lexer) to a vm.RegisterID. Matching is
// case-sensitive: only lowercase register names resolve.
func parseRegisterToken(lit string) (vm.RegisterID, error) {
	return vm.ParseRegister(lit)
}

type operandShape int

const (
	shapeRegImm     operandShape = iota // rd, r1, imm
	shapeRegReg                         // rd, r1, r2
	shapeLoad                           // rd, offset(r1)
	shapeStore                          // r2, offset(r1)
	shapeBranch                         // r1, r2, label
	shapeBranchZero                     // r1, label
	shapeLoadImm                        // rd, imm
	shapeUnary                          // rd, r1
	shapeCall                           // label
	shapeJal                            // [rd,] label
	shapeJalr                           // [rd, offset,] r1   (bare form: r1 only)
	shapeJ                              // label
	shapeJr                             // r1
	shapeRet                            // (no operands)
)

type mnemonicInfo struct {
	op    vm.Opcode
	shape operandShape
}

var mnemonics = map[string]mnemonicInfo{
	"addi":  {vm.OpAddi, shapeRegImm},
	"slti":  {vm.OpSlti, shapeRegImm},
	"sltiu": {vm.OpSltiu, shapeRegImm},
	"xori":  {vm.OpXori, shapeRegImm},
	"ori":   {vm.OpOri, shapeRegImm},
	"andi":  {vm.OpAndi, shapeRegImm},
	"slli":  {vm.OpSlli, shapeRegImm},
	"srli":  {vm.OpSrli, shapeRegImm},
	"srai":  {vm.OpSrai, shapeRegImm},

	"add": {vm.OpAdd, shapeRegReg},
	"sub": {vm.OpSub, shapeRegReg},
	"sll": {vm.OpSll, shapeRegReg},
	"slt": {vm.OpSlt, shapeRegReg},
	"sltu": {vm.OpSltu, shapeRegReg},
	"xor":  {vm.OpXor, shapeRegReg},
	"srl":  {vm.OpSrl, shapeRegReg},
	"sra":  {vm.OpSra, shapeRegReg},
	"or":   {vm.OpOr, shapeRegReg},
	"and":  {vm.OpAnd, shapeRegReg},

	"lw":  {vm.OpLw, shapeLoad},
	"lh":  {vm.OpLh, shapeLoad},
	"lhu": {vm.OpLhu, shapeLoad},
	"lb":  {vm.OpLb, shapeLoad},
	"lbu": {vm.OpLbu, shapeLoad},

	"sw": {vm.OpSw, shapeStore},
	"sh": {vm.OpSh, shapeStore},
	"sb": {vm.OpSb, shapeStore},

	"beq":  {vm.OpBeq, shapeBranch},
	"bne":  {vm.OpBne, shapeBranch},
	"blt":  {vm.OpBlt, shapeBranch},
	"bge":  {vm.OpBge, shapeBranch},
	"bltu": {vm.OpBltu, shapeBranch},
	"bgeu": {vm.OpBgeu, shapeBranch},
	"bgt":  {vm.OpBgt, shapeBranch},
	"ble":  {vm.OpBle, shapeBranch},
	"bgtu": {vm.OpBgtu, shapeBranch},
	"bleu": {vm.OpBleu, shapeBranch},

	"beqz": {vm.OpBeqz, shapeBranchZero},
	"bnez": {vm.OpBnez, shapeBranchZero},
	"bltz": {vm.OpBltz, shapeBranchZero},
	"bgez": {vm.OpBgez, shapeBranchZero},
	"bgtz": {vm.OpBgtz, shapeBranchZero},
	"blez": {vm.OpBlez, shapeBranchZero},

	"lui": {vm.OpLui, shapeLoadImm},
	"li":  {vm.OpLi, shapeLoadImm},

	"mv":  {vm.OpMv, shapeUnary},
	"not": {vm.OpNot, shapeUnary},
	"neg": {vm.OpNeg, shapeUnary},

	"call": {vm.OpCall, shapeCall},
	"jal":  {vm.OpJal, shapeJal},
	"jalr": {vm.OpJalr, shapeJalr},
	"j":    {vm.OpJ, shapeJ},
	"jr":   {vm.OpJr, shapeJr},
	"ret":  {vm.OpRet, shapeRet},
}

// sourceLine is one non-blank, non-comment-only logical line: at most one
// label definition and at most one instruction.
type sourceLine struct {
	label  string // "" if none
	mnem   string // "" if this line was label-only
	tokens []Token
	pos    Position
}

// Parser builds a vm.Program from assembly source text in two passes:
// the first collects label-to-instruction-index bindings, the second
// decodes each instruction's operands against the mnemonic table.
type Parser struct {
	filename string
	errors   *ErrorList
}

// NewParser creates a parser that attributes errors to filename.
func NewParser(filename string) *Parser {
	return &Parser{filename: filename, errors: &ErrorList{}}
}

// Errors returns the accumulated error/warning list from the last Parse call.
func (p *Parser) Errors() *ErrorList {
	return p.errors
}

// Parse lexes and parses source, returning a validated vm.Program.
func (p *Parser) Parse(source string) (*vm.Program, error) {
	p.errors = &ErrorList{}
	lines := p.splitLines(source)

	labels := make(map[string]int)
	idx := 0
	for _, ln := range lines {
		if ln.label != "" {
			if _, exists := labels[ln.label]; exists {
				p.errors.AddError(NewError(ln.pos, ErrorDuplicateLabel, fmt.Sprintf("duplicate label %q", ln.label)))
				continue
			}
			labels[ln.label] = idx
		}
		if ln.mnem != "" {
			idx++
		}
	}

	instrs := make([]vm.Instruction, 0, idx)
	for _, ln := range lines {
		if ln.mnem == "" {
			continue
		}
		instr, err := p.decodeInstruction(ln, labels)
		if err != nil {
			p.errors.AddError(err.(*Error))
			continue
		}
		instrs = append(instrs, instr)
	}

	if p.errors.HasErrors() {
		return nil, p.errors
	}
	return vm.NewProgram(instrs, labels), nil
}

// splitLines runs the lexer over source and groups tokens into logical
// lines, each holding an optional label and an optional instruction with
// its operand tokens.
func (p *Parser) splitLines(source string) []sourceLine {
	lexer := NewLexer(source, p.filename)
	var lines []sourceLine
	var cur sourceLine
	curSet := false

	flush := func() {
		if curSet {
			lines = append(lines, cur)
		}
		cur = sourceLine{}
		curSet = false
	}

	pendingIdent := ""
	pendingPos := Position{}
	havePending := false

	emitPending := func() {
		if !havePending {
			return
		}
		if !curSet {
			cur.pos = pendingPos
			curSet = true
		}
		if cur.mnem == "" && len(cur.tokens) == 0 {
			cur.mnem = pendingIdent
		} else {
			cur.tokens = append(cur.tokens, Token{Type: TokenIdentifier, Literal: pendingIdent, Pos: pendingPos})
		}
		havePending = false
	}

	for {
		tok := lexer.NextToken()
		switch tok.Type {
		case TokenEOF:
			emitPending()
			flush()
			for _, e := range lexer.Errors().Errors {
				p.errors.AddError(e)
			}
			return lines
		case TokenNewline:
			emitPending()
			flush()
		case TokenComment:
			// ignored
		case TokenColon:
			if havePending {
				cur.pos = pendingPos
				cur.label = pendingIdent
				curSet = true
				havePending = false
			}
		case TokenIdentifier:
			emitPending()
			pendingIdent = tok.Literal
			pendingPos = tok.Pos
			havePending = true
		default:
			emitPending()
			if !curSet {
				cur.pos = tok.Pos
				curSet = true
			}
			cur.tokens = append(cur.tokens, tok)
		}
	}
}

// decodeInstruction resolves ln's mnemonic and operand tokens into a
// vm.Instruction, per the shape the mnemonic table assigns it.
func (p *Parser) decodeInstruction(ln sourceLine, labels map[string]int) (vm.Instruction, error) {
	info, ok := mnemonics[ln.mnem]
	if !ok {
		return vm.Instruction{}, NewError(ln.pos, ErrorInvalidInstruction, fmt.Sprintf("unknown mnemonic %q", ln.mnem))
	}

	ops := splitOperands(ln.tokens)

	switch info.shape {
	case shapeRegImm:
		return p.decodeRegImm(info.op, ops, ln.pos)
	case shapeRegReg:
		return p.decodeRegReg(info.op, ops, ln.pos)
	case shapeLoad:
		return p.decodeLoad(info.op, ops, ln.pos)
	case shapeStore:
		return p.decodeStore(info.op, ops, ln.pos)
	case shapeBranch:
		return p.decodeBranch(info.op, ops, labels, ln.pos)
	case shapeBranchZero:
		return p.decodeBranchZero(info.op, ops, labels, ln.pos)
	case shapeLoadImm:
		return p.decodeLoadImm(info.op, ops, ln.pos)
	case shapeUnary:
		return p.decodeUnary(info.op, ops, ln.pos)
	case shapeCall:
		return p.decodeLabelOnly(vm.OpCall, ops, labels, ln.pos)
	case shapeJal:
		return p.decodeJal(ops, labels, ln.pos)
	case shapeJalr:
		return p.decodeJalr(ops, ln.pos)
	case shapeJ:
		return p.decodeLabelOnly(vm.OpJ, ops, labels, ln.pos)
	case shapeJr:
		return p.decodeJr(ops, ln.pos)
	case shapeRet:
		return vm.Instruction{Op: vm.OpRet}, nil
	default:
		return vm.Instruction{}, NewError(ln.pos, ErrorInvalidInstruction, fmt.Sprintf("internal: unhandled shape for %q", ln.mnem))
	}
}

// splitOperands groups tokens into comma-separated operand groups, each a
// token slice (so "offset(reg)" loads/stores keep their parenthesized
// register together with the offset for shapeLoad/shapeStore decoding).
func splitOperands(tokens []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	for _, t := range tokens {
		if t.Type == TokenComma {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 || len(groups) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func parseImmediate(tok Token) (int32, error) {
	lit := tok.Literal
	neg := false
	if strings.HasPrefix(lit, "-") {
		neg = true
		lit = lit[1:]
	}
	var v uint64
	var err error
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		v, err = strconv.ParseUint(lit[2:], 16, 64)
	case strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B"):
		v, err = strconv.ParseUint(lit[2:], 2, 64)
	default:
		v, err = strconv.ParseUint(lit, 10, 64)
	}
	if err != nil {
		return 0, err
	}
	result := int32(uint32(v))
	if neg {
		result = -result
	}
	return result, nil
}

func expectRegister(ops [][]Token, i int, pos Position) (vm.RegisterID, error) {
	if i >= len(ops) || len(ops[i]) != 1 || ops[i][0].Type != TokenRegister {
		return 0, NewError(pos, ErrorInvalidOperand, fmt.Sprintf("expected register operand %d", i+1))
	}
	return parseRegisterToken(ops[i][0].Literal)
}

func expectImmediate(ops [][]Token, i int, pos Position) (int32, error) {
	if i >= len(ops) {
		return 0, NewError(pos, ErrorInvalidOperand, fmt.Sprintf("expected immediate operand %d", i+1))
	}
	toks := ops[i]
	if len(toks) == 1 && toks[0].Type == TokenNumber {
		return parseImmediate(toks[0])
	}
	if len(toks) == 2 && toks[0].Type == TokenMinus && toks[1].Type == TokenNumber {
		v, err := parseImmediate(toks[1])
		if err != nil {
			return 0, err
		}
		return -v, err
	}
	return 0, NewError(pos, ErrorInvalidOperand, fmt.Sprintf("expected immediate operand %d", i+1))
}

func expectLabel(ops [][]Token, i int, pos Position) (string, error) {
	if i >= len(ops) || len(ops[i]) != 1 || ops[i][0].Type != TokenIdentifier {
		return "", NewError(pos, ErrorInvalidOperand, fmt.Sprintf("expected label operand %d", i+1))
	}
	return ops[i][0].Literal, nil
}

// expectOffsetBase parses the "offset(reg)" operand shared by load and
// store instructions.
func expectOffsetBase(ops [][]Token, i int, pos Position) (int32, vm.RegisterID, error) {
	if i >= len(ops) {
		return 0, 0, NewError(pos, ErrorInvalidOperand, "expected offset(register) operand")
	}
	toks := ops[i]

	lp, rp := -1, -1
	for idx, t := range toks {
		if t.Type == TokenLParen {
			lp = idx
		}
		if t.Type == TokenRParen {
			rp = idx
		}
	}
	if lp == -1 || rp == -1 || rp != len(toks)-1 {
		return 0, 0, NewError(pos, ErrorInvalidOperand, "expected offset(register) operand")
	}

	offsetToks := toks[:lp]
	var offset int32
	if len(offsetToks) == 0 {
		offset = 0
	} else {
		neg := false
		if offsetToks[0].Type == TokenMinus {
			neg = true
			offsetToks = offsetToks[1:]
		}
		if len(offsetToks) != 1 || offsetToks[0].Type != TokenNumber {
			return 0, 0, NewError(pos, ErrorInvalidOperand, "invalid offset")
		}
		v, err := parseImmediate(offsetToks[0])
		if err != nil {
			return 0, 0, NewError(pos, ErrorInvalidOperand, "invalid offset: "+err.Error())
		}
		if neg {
			v = -v
		}
		offset = v
	}

	regToks := toks[lp+1 : rp]
	if len(regToks) != 1 || regToks[0].Type != TokenRegister {
		return 0, 0, NewError(pos, ErrorInvalidOperand, "expected base register")
	}
	base, err := parseRegisterToken(regToks[0].Literal)
	if err != nil {
		return 0, 0, NewError(pos, ErrorInvalidOperand, err.Error())
	}
	return offset, base, nil
}

func (p *Parser) decodeRegImm(op vm.Opcode, ops [][]Token, pos Position) (vm.Instruction, error) {
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	r1, err := expectRegister(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	imm, err := expectImmediate(ops, 2, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, Rd: rd, R1: r1, Imm: imm}, nil
}

func (p *Parser) decodeRegReg(op vm.Opcode, ops [][]Token, pos Position) (vm.Instruction, error) {
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	r1, err := expectRegister(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	r2, err := expectRegister(ops, 2, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, Rd: rd, R1: r1, R2: r2}, nil
}

func (p *Parser) decodeLoad(op vm.Opcode, ops [][]Token, pos Position) (vm.Instruction, error) {
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	offset, base, err := expectOffsetBase(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, Rd: rd, R1: base, Offset: offset}, nil
}

func (p *Parser) decodeStore(op vm.Opcode, ops [][]Token, pos Position) (vm.Instruction, error) {
	r2, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	offset, base, err := expectOffsetBase(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, R1: base, R2: r2, Offset: offset}, nil
}

func (p *Parser) decodeBranch(op vm.Opcode, ops [][]Token, labels map[string]int, pos Position) (vm.Instruction, error) {
	r1, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	r2, err := expectRegister(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	label, err := expectLabel(ops, 2, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	idx, err := resolveLabel(labels, label, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, R1: r1, R2: r2, Label: label, LabelIdx: idx}, nil
}

func (p *Parser) decodeBranchZero(op vm.Opcode, ops [][]Token, labels map[string]int, pos Position) (vm.Instruction, error) {
	r1, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	label, err := expectLabel(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	idx, err := resolveLabel(labels, label, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, R1: r1, Label: label, LabelIdx: idx}, nil
}

func (p *Parser) decodeLoadImm(op vm.Opcode, ops [][]Token, pos Position) (vm.Instruction, error) {
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	imm, err := expectImmediate(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, Rd: rd, Imm: imm}, nil
}

func (p *Parser) decodeUnary(op vm.Opcode, ops [][]Token, pos Position) (vm.Instruction, error) {
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	r1, err := expectRegister(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, Rd: rd, R1: r1}, nil
}

func (p *Parser) decodeLabelOnly(op vm.Opcode, ops [][]Token, labels map[string]int, pos Position) (vm.Instruction, error) {
	label, err := expectLabel(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	idx, err := resolveLabel(labels, label, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: op, Label: label, LabelIdx: idx}, nil
}

// decodeJal handles both "jal rd, label" and the bare "jal label" form,
// which defaults rd to ra.
func (p *Parser) decodeJal(ops [][]Token, labels map[string]int, pos Position) (vm.Instruction, error) {
	if len(ops) == 1 {
		label, err := expectLabel(ops, 0, pos)
		if err != nil {
			return vm.Instruction{}, err
		}
		idx, err := resolveLabel(labels, label, pos)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: vm.OpJal, Rd: vm.RA, Label: label, LabelIdx: idx}, nil
	}
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	label, err := expectLabel(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	idx, err := resolveLabel(labels, label, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: vm.OpJal, Rd: rd, Label: label, LabelIdx: idx}, nil
}

// decodeJalr handles "jalr rd, offset, r1" and the bare "jalr rs" form,
// which defaults rd=ra, offset=0.
func (p *Parser) decodeJalr(ops [][]Token, pos Position) (vm.Instruction, error) {
	if len(ops) == 1 {
		r1, err := expectRegister(ops, 0, pos)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: vm.OpJalr, Rd: vm.RA, R1: r1, Offset: 0}, nil
	}
	rd, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	offset, err := expectImmediate(ops, 1, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	r1, err := expectRegister(ops, 2, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: vm.OpJalr, Rd: rd, R1: r1, Offset: offset}, nil
}

func (p *Parser) decodeJr(ops [][]Token, pos Position) (vm.Instruction, error) {
	r1, err := expectRegister(ops, 0, pos)
	if err != nil {
		return vm.Instruction{}, err
	}
	return vm.Instruction{Op: vm.OpJr, R1: r1}, nil
}

func resolveLabel(labels map[string]int, name string, pos Position) (int, error) {
	idx, ok := labels[name]
	if !ok {
		return 0, NewError(pos, ErrorUndefinedLabel, fmt.Sprintf("undefined label %q", name))
	}
	return idx, nil
}
