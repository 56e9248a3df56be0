package tools

import (
	"strings"
	"testing"
)

func TestFormat_BasicInstruction(t *testing.T) {
	source := `li a0,10`

	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	if !strings.Contains(result, "li") {
		t.Error("expected li instruction in output")
	}
	if !strings.Contains(result, "a0, 10") {
		t.Errorf("expected comma-space separated operands, got: %s", result)
	}
}

func TestFormat_WithLabel(t *testing.T) {
	source := `loop:addi a0,a0,1`

	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	if !strings.HasPrefix(strings.TrimSpace(result), "loop:") {
		t.Errorf("expected line to start with label, got: %s", result)
	}
}

func TestFormat_WithComment(t *testing.T) {
	source := `li a0, 10 # load 10 into a0`

	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	if !strings.Contains(result, "load 10 into a0") {
		t.Error("expected comment preserved in output")
	}
	if !strings.Contains(result, "#") {
		t.Error("expected comment marker")
	}
}

func TestFormat_CompactStyle(t *testing.T) {
	source := `
loop:	li a0, 10
		addi a0, a0, 1
	`

	result, err := NewFormatter(CompactFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	for _, line := range strings.Split(strings.TrimSpace(result), "\n") {
		if strings.Contains(line, "  ") {
			t.Errorf("compact style should minimize whitespace: %q", line)
		}
	}
}

func TestFormat_ExpandedStyle(t *testing.T) {
	result, err := NewFormatter(ExpandedFormatOptions()).Format("li a0,10", "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, " ") {
		t.Error("expected whitespace in expanded style")
	}
}

func TestFormat_MultipleInstructions(t *testing.T) {
	source := `
start: li a0, 10
       addi a0, a0, 1
       sub a1, a0, a0
       ret
	`

	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(result), "\n")
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d: %q", len(lines), result)
	}

	for _, inst := range []string{"li", "addi", "sub", "ret"} {
		if !strings.Contains(result, inst) {
			t.Errorf("expected instruction %s in output", inst)
		}
	}
}

func TestFormat_LoadStoreOperand(t *testing.T) {
	result, err := NewFormatter(DefaultFormatOptions()).Format("lw a0, 4(sp)", "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, "4(sp)") {
		t.Errorf("expected offset(base) operand preserved, got: %s", result)
	}
}

func TestFormat_AlignComments(t *testing.T) {
	source := `
li a0, 10 # comment one
addi a1, a0, 1 # comment two
	`

	options := DefaultFormatOptions()
	options.AlignComments = true
	options.CommentColumn = 30

	result, err := NewFormatter(options).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	for _, line := range strings.Split(strings.TrimRight(result, "\n"), "\n") {
		if idx := strings.Index(line, "#"); idx != -1 && idx < options.CommentColumn-5 {
			t.Errorf("comment not aligned near column %d: %q", options.CommentColumn, line)
		}
	}
}

func TestFormat_PreserveOperandOrder(t *testing.T) {
	result, err := NewFormatter(DefaultFormatOptions()).Format("add a0, a1, a2", "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, "a0, a1, a2") {
		t.Errorf("expected operands in order a0, a1, a2, got: %s", result)
	}
}

func TestFormat_EmptyInput(t *testing.T) {
	result, err := NewFormatter(DefaultFormatOptions()).Format("", "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if strings.TrimSpace(result) != "" {
		t.Errorf("expected empty output for empty input, got: %s", result)
	}
}

func TestFormat_OnlyComments(t *testing.T) {
	source := "# first comment\n# second comment"
	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(result), "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			t.Errorf("comment-only input should produce no instruction lines, got: %s", result)
		}
	}
}

func TestFormat_LabelOnly(t *testing.T) {
	source := `
start:
	li a0, 10
	`

	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, "start:") {
		t.Error("expected start label preserved")
	}
}

func TestFormatString_Convenience(t *testing.T) {
	result, err := FormatString("li a0, 10", "test.s")
	if err != nil {
		t.Fatalf("FormatString error: %v", err)
	}
	if !strings.Contains(result, "li") {
		t.Error("expected li in formatted output")
	}
}

func TestFormatStringWithStyle_Compact(t *testing.T) {
	result, err := FormatStringWithStyle("li a0, 10", "test.s", FormatCompact)
	if err != nil {
		t.Fatalf("FormatStringWithStyle error: %v", err)
	}
	if !strings.Contains(result, "li") {
		t.Error("expected li in formatted output")
	}
}

func TestFormatStringWithStyle_Expanded(t *testing.T) {
	result, err := FormatStringWithStyle("li a0, 10", "test.s", FormatExpanded)
	if err != nil {
		t.Fatalf("FormatStringWithStyle error: %v", err)
	}
	if !strings.Contains(result, "li") {
		t.Error("expected li in formatted output")
	}
}

func TestFormat_BranchInstruction(t *testing.T) {
	source := `
start:	li a0, 10
		j loop
loop:	addi a0, a0, 1
	`

	result, err := NewFormatter(DefaultFormatOptions()).Format(source, "test.s")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	if !strings.Contains(result, "j") {
		t.Error("expected j instruction")
	}
	if !strings.Contains(result, "start:") || !strings.Contains(result, "loop:") {
		t.Error("expected both labels in output")
	}
}

func TestFormat_LexError(t *testing.T) {
	_, err := NewFormatter(DefaultFormatOptions()).Format("li a0, /", "test.s")
	if err == nil {
		t.Error("expected lex error for stray '/'")
	}
}
