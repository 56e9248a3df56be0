package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rv32ttd/rv32ttd/asm"
	"github.com/rv32ttd/rv32ttd/vm"
)

// LintLevel represents the severity of a lint issue
type LintLevel int

const (
	LintError   LintLevel = iota // syntax errors, duplicate/undefined labels
	LintWarning                  // unused labels, unreachable code
	LintInfo                     // style suggestions
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue represents a single lint finding
type LintIssue struct {
	Level   LintLevel
	Line    int
	Column  int
	Message string
	Code    string // issue code like "UNUSED_LABEL", "UNREACHABLE_CODE"
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d:%d: %s: %s [%s]", i.Line, i.Column, i.Level, i.Message, i.Code)
}

// LintOptions controls linter behavior
type LintOptions struct {
	Strict      bool // treat warnings as errors
	CheckUnused bool // check for unused labels
	CheckReach  bool // check for unreachable code
	CheckRegUse bool // check register usage (x0 as a destination)
}

// DefaultLintOptions returns default linter options
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		Strict:      false,
		CheckUnused: true,
		CheckReach:  true,
		CheckRegUse: true,
	}
}

// Linter checks assembly source for label and reachability problems,
// on top of the syntax/label validation asm.Parser already does.
type Linter struct {
	options *LintOptions
	issues  []*LintIssue
}

// NewLinter creates a new linter.
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{options: options}
}

// Lint checks input, attributing positions to filename, and returns every
// issue found sorted by line then column.
func (l *Linter) Lint(input, filename string) []*LintIssue {
	l.issues = nil

	p := asm.NewParser(filename)
	program, err := p.Parse(input)
	if err != nil {
		for _, pe := range p.Errors().Errors {
			l.addIssue(LintError, pe.Pos.Line, pe.Pos.Column, pe.Message, codeForErrorKind(pe.Kind))
		}
		// A program that fails to parse can't be mapped to instruction
		// indices, so the semantic checks below can't run.
		return l.sortedIssues()
	}

	instrLines, lexErr := instructionLines(input, filename)
	if lexErr != nil {
		// Parse succeeded but re-lexing for line numbers didn't; report
		// the semantic checks against instruction index 0 rather than
		// dropping them entirely.
		instrLines = make([]int, len(program.Instructions))
	}

	if l.options.CheckUnused {
		l.checkUnusedLabels(program, instrLines)
	}
	if l.options.CheckReach {
		l.checkUnreachableCode(program, instrLines)
	}
	if l.options.CheckRegUse {
		l.checkRegisterUsage(program, instrLines)
	}

	return l.sortedIssues()
}

// addIssue records an issue. Under Strict, a warning is recorded as an
// error: CI or a pre-commit hook that only fails the build on LintError can
// opt into treating style problems as build-breaking.
func (l *Linter) addIssue(level LintLevel, line, column int, message, code string) {
	if level == LintWarning && l.options.Strict {
		level = LintError
	}
	l.issues = append(l.issues, &LintIssue{
		Level:   level,
		Line:    line,
		Column:  column,
		Message: message,
		Code:    code,
	})
}

func (l *Linter) sortedIssues() []*LintIssue {
	sort.Slice(l.issues, func(i, j int) bool {
		if l.issues[i].Line != l.issues[j].Line {
			return l.issues[i].Line < l.issues[j].Line
		}
		return l.issues[i].Column < l.issues[j].Column
	})
	return l.issues
}

func codeForErrorKind(kind asm.ErrorKind) string {
	switch kind {
	case asm.ErrorUndefinedLabel:
		return "UNDEF_LABEL"
	case asm.ErrorDuplicateLabel:
		return "DUP_LABEL"
	case asm.ErrorInvalidInstruction:
		return "INVALID_INSTRUCTION"
	case asm.ErrorInvalidOperand:
		return "INVALID_OPERAND"
	case asm.ErrorFileIO:
		return "FILE_IO"
	default:
		return "SYNTAX"
	}
}

// instructionLines returns, for each instruction index in parse order, the
// 1-based source line it was decoded from. It re-runs the same
// label-counting loop asm.Parser.Parse uses, against the comment-preserving
// tokenizer in format.go, since vm.Instruction itself carries no position.
func instructionLines(input, filename string) ([]int, error) {
	lines, err := tokenizeFormatLines(input, filename)
	if err != nil {
		return nil, err
	}

	var instrLines []int
	for _, ln := range lines {
		if ln.mnemonic != "" {
			instrLines = append(instrLines, ln.line)
		}
	}
	return instrLines, nil
}

// lineFor returns the source line for instruction index idx, or 0 if idx is
// out of range (should not happen against a program instrLines was built
// from, but callers must not panic on a best-effort lint pass).
func lineFor(instrLines []int, idx int) int {
	if idx < 0 || idx >= len(instrLines) {
		return 0
	}
	return instrLines[idx]
}

// checkUnusedLabels flags labels that are never a branch, jump, or call
// target. The entry label at instruction 0, if any, is exempt: execution
// always starts there regardless of whether anything references it by name.
func (l *Linter) checkUnusedLabels(program *vm.Program, instrLines []int) {
	referenced := make(map[string]bool)
	for _, instr := range program.Instructions {
		if instr.Label != "" {
			referenced[instr.Label] = true
		}
	}

	for name, idx := range program.Labels {
		if idx == 0 || referenced[name] {
			continue
		}
		l.addIssue(LintWarning, lineFor(instrLines, idx), 0,
			fmt.Sprintf("label %q is never referenced", name), "UNUSED_LABEL")
	}
}

// isUnconditionalExit reports whether op always transfers control away from
// the following instruction: an unconditional jump, a register jump, or a
// return. call falls through to the caller's next instruction on return, so
// it is not included.
func isUnconditionalExit(op vm.Opcode) bool {
	switch op {
	case vm.OpJ, vm.OpJr, vm.OpRet:
		return true
	default:
		return false
	}
}

// checkUnreachableCode flags instructions that follow an unconditional
// exit and are not themselves a label target, since nothing in the program
// can reach them.
func (l *Linter) checkUnreachableCode(program *vm.Program, instrLines []int) {
	targets := make(map[int]bool, len(program.Labels))
	for _, idx := range program.Labels {
		targets[idx] = true
	}

	afterExit := false
	for idx, instr := range program.Instructions {
		if afterExit && !targets[idx] {
			l.addIssue(LintWarning, lineFor(instrLines, idx), 0,
				fmt.Sprintf("unreachable code following %s", instr.Op), "UNREACHABLE_CODE")
		}
		afterExit = isUnconditionalExit(instr.Op)
	}
}

// writesRd reports whether op's decoded Instruction.Rd is a real
// destination register, as opposed to the zero value of a family that
// doesn't use Rd at all.
func writesRd(op vm.Opcode) bool {
	switch op {
	case vm.OpAddi, vm.OpSlti, vm.OpSltiu, vm.OpXori, vm.OpOri, vm.OpAndi, vm.OpSlli, vm.OpSrli, vm.OpSrai,
		vm.OpAdd, vm.OpSub, vm.OpSll, vm.OpSlt, vm.OpSltu, vm.OpXor, vm.OpSrl, vm.OpSra, vm.OpOr, vm.OpAnd,
		vm.OpLw, vm.OpLh, vm.OpLhu, vm.OpLb, vm.OpLbu,
		vm.OpLui, vm.OpLi,
		vm.OpMv, vm.OpNot, vm.OpNeg,
		vm.OpJal, vm.OpJalr:
		return true
	default:
		return false
	}
}

// checkRegisterUsage flags writes to x0: at runtime the value is never
// stored, and registerDiff's x0-write policy lets the write pass
// silently, attaches a warning, or fails it, so a program that targets x0
// deliberately is, at best, confusing and, at worst, a typo for another
// register.
func (l *Linter) checkRegisterUsage(program *vm.Program, instrLines []int) {
	for idx, instr := range program.Instructions {
		if writesRd(instr.Op) && instr.Rd == vm.X0 {
			l.addIssue(LintInfo, lineFor(instrLines, idx), 0,
				fmt.Sprintf("%s writes to x0, which is always read back as zero", instr.Op), "X0_DESTINATION")
		}
	}
}

// LintString lints input with default options.
func LintString(input, filename string) []*LintIssue {
	return NewLinter(DefaultLintOptions()).Lint(input, filename)
}

// HasErrors reports whether any issue in issues is at LintError level.
func HasErrors(issues []*LintIssue) bool {
	for _, issue := range issues {
		if issue.Level == LintError {
			return true
		}
	}
	return false
}

// FormatIssues renders issues as one line per issue, for CLI output.
func FormatIssues(issues []*LintIssue) string {
	var sb strings.Builder
	for _, issue := range issues {
		sb.WriteString(issue.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
