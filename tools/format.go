package tools

import (
	"fmt"
	"strings"

	"github.com/rv32ttd/rv32ttd/asm"
)

// FormatStyle selects a formatting preset.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // standard columnar formatting
	FormatCompact                     // minimal whitespace
	FormatExpanded                    // extra whitespace for readability
)

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	Style             FormatStyle
	InstructionColumn int  // column mnemonics start at
	OperandColumn     int  // column operands start at
	CommentColumn     int  // column comments start at
	AlignOperands     bool // pad to OperandColumn instead of a single tab
	AlignComments     bool // pad to CommentColumn instead of a single tab
}

// DefaultFormatOptions returns default formatter options.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:             FormatDefault,
		InstructionColumn: 8,
		OperandColumn:     16,
		CommentColumn:     40,
		AlignOperands:     true,
		AlignComments:     true,
	}
}

// CompactFormatOptions returns options for compact formatting.
func CompactFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatCompact
	opts.InstructionColumn = 0
	opts.OperandColumn = 0
	opts.CommentColumn = 0
	opts.AlignOperands = false
	opts.AlignComments = false
	return opts
}

// ExpandedFormatOptions returns options for expanded formatting.
func ExpandedFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatExpanded
	opts.InstructionColumn = 12
	opts.OperandColumn = 24
	opts.CommentColumn = 50
	return opts
}

// formatLine is one logical source line: an optional label, an optional
// instruction with its operand texts, and an optional trailing comment.
type formatLine struct {
	line     int // 1-based source line the logical line started on
	label    string
	mnemonic string
	operands []string
	comment  string
}

// Formatter reformats assembly source text to a consistent column layout.
type Formatter struct {
	options *FormatOptions
	output  strings.Builder
}

// NewFormatter creates a new formatter.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format formats input, attributing lex errors to filename.
func (f *Formatter) Format(input, filename string) (string, error) {
	lines, err := tokenizeFormatLines(input, filename)
	if err != nil {
		return "", fmt.Errorf("lex error: %w", err)
	}

	f.output.Reset()
	for _, ln := range lines {
		f.formatLine(ln)
	}
	return f.output.String(), nil
}

// tokenizeFormatLines groups filename's tokens into logical lines,
// preserving comments and operand text that the decode-only asm.Parser
// discards. It mirrors asm.Parser's own line-splitting loop.
func tokenizeFormatLines(input, filename string) ([]formatLine, error) {
	lexer := asm.NewLexer(input, filename)

	var lines []formatLine
	var cur formatLine
	var operand strings.Builder
	haveOperand := false
	lineStarted := false

	pendingIdent := ""
	havePendingIdent := false

	markLine := func(tok asm.Token) {
		if !lineStarted {
			cur.line = tok.Pos.Line
			lineStarted = true
		}
	}

	flushOperand := func() {
		if haveOperand {
			cur.operands = append(cur.operands, operand.String())
			operand.Reset()
			haveOperand = false
		}
	}
	flushIdent := func() {
		if !havePendingIdent {
			return
		}
		if cur.mnemonic == "" {
			cur.mnemonic = pendingIdent
		} else {
			operand.WriteString(pendingIdent)
			haveOperand = true
		}
		havePendingIdent = false
	}
	flushLine := func() {
		flushIdent()
		flushOperand()
		if cur.label != "" || cur.mnemonic != "" || cur.comment != "" {
			lines = append(lines, cur)
		}
		cur = formatLine{}
		lineStarted = false
	}

	for {
		tok := lexer.NextToken()
		switch tok.Type {
		case asm.TokenEOF:
			flushLine()
			if lexer.Errors().HasErrors() {
				return nil, lexer.Errors()
			}
			return lines, nil
		case asm.TokenNewline:
			flushLine()
		case asm.TokenComment:
			markLine(tok)
			flushIdent()
			flushOperand()
			cur.comment = strings.TrimSpace(stripCommentMarker(tok.Literal))
		case asm.TokenColon:
			if havePendingIdent {
				cur.label = pendingIdent
				havePendingIdent = false
			}
		case asm.TokenComma:
			flushIdent()
			flushOperand()
		case asm.TokenIdentifier:
			markLine(tok)
			flushIdent()
			pendingIdent = tok.Literal
			havePendingIdent = true
		default:
			markLine(tok)
			flushIdent()
			operand.WriteString(tok.Literal)
			haveOperand = true
		}
	}
}

// stripCommentMarker removes the leading "#" or "//" a comment token's
// literal carries, per the lexer's comment-token convention.
func stripCommentMarker(literal string) string {
	switch {
	case strings.HasPrefix(literal, "//"):
		return literal[2:]
	case strings.HasPrefix(literal, "#"):
		return literal[1:]
	default:
		return literal
	}
}

// formatLine renders one logical line per f.options and appends it (plus
// a trailing newline) to f.output.
func (f *Formatter) formatLine(ln formatLine) {
	var sb strings.Builder

	if ln.label != "" {
		sb.WriteString(ln.label)
		sb.WriteString(":")
		if ln.mnemonic != "" {
			if f.options.Style == FormatCompact {
				sb.WriteString(" ")
			} else {
				f.padToColumn(&sb, f.options.InstructionColumn)
			}
		}
	} else if ln.mnemonic != "" && f.options.Style != FormatCompact {
		f.padToColumn(&sb, f.options.InstructionColumn)
	}

	if ln.mnemonic != "" {
		sb.WriteString(ln.mnemonic)
		if len(ln.operands) > 0 {
			switch {
			case f.options.Style == FormatCompact:
				sb.WriteString(" ")
			case f.options.AlignOperands:
				f.padToColumn(&sb, f.options.OperandColumn)
			default:
				sb.WriteString("\t")
			}
			sb.WriteString(strings.Join(ln.operands, ", "))
		}
	}

	if ln.comment != "" {
		switch {
		case f.options.Style == FormatCompact:
			sb.WriteString(" # ")
			sb.WriteString(ln.comment)
		case f.options.AlignComments:
			f.padToColumn(&sb, f.options.CommentColumn)
			sb.WriteString("# ")
			sb.WriteString(ln.comment)
		default:
			sb.WriteString("\t# ")
			sb.WriteString(ln.comment)
		}
	}

	f.output.WriteString(sb.String())
	f.output.WriteString("\n")
}

// padToColumn pads sb with spaces until it reaches column, or a single
// space if sb is already past it.
func (f *Formatter) padToColumn(sb *strings.Builder, column int) {
	current := sb.Len()
	switch {
	case current < column:
		sb.WriteString(strings.Repeat(" ", column-current))
	case current == column:
	default:
		sb.WriteString(" ")
	}
}

// FormatString formats input with default options.
func FormatString(input, filename string) (string, error) {
	return NewFormatter(DefaultFormatOptions()).Format(input, filename)
}

// FormatStringWithStyle formats input with the given style's preset options.
func FormatStringWithStyle(input, filename string, style FormatStyle) (string, error) {
	var options *FormatOptions
	switch style {
	case FormatCompact:
		options = CompactFormatOptions()
	case FormatExpanded:
		options = ExpandedFormatOptions()
	default:
		options = DefaultFormatOptions()
	}
	return NewFormatter(options).Format(input, filename)
}
