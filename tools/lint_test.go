package tools

import (
	"strings"
	"testing"
)

func TestLint_UndefinedLabel(t *testing.T) {
	source := `
		li a0, 10
		j undefined_label
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	foundError := false
	for _, issue := range issues {
		if issue.Code == "UNDEF_LABEL" && strings.Contains(issue.Message, "undefined_label") {
			foundError = true
			if issue.Level != LintError {
				t.Errorf("expected error level, got %v", issue.Level)
			}
		}
	}
	if !foundError {
		t.Errorf("expected undefined label error, got: %v", issues)
	}
}

func TestLint_DuplicateLabel(t *testing.T) {
	source := `
loop:	li a0, 10
loop:	addi a0, a0, 1
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	foundError := false
	for _, issue := range issues {
		if issue.Code == "DUP_LABEL" {
			foundError = true
		}
	}
	if !foundError {
		t.Errorf("expected duplicate label error, got: %v", issues)
	}
}

func TestLint_UnusedLabel(t *testing.T) {
	source := `
start:	li a0, 10
unused:	addi a0, a0, 1
	ret
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	foundUnused := false
	for _, issue := range issues {
		if issue.Code == "UNUSED_LABEL" && strings.Contains(issue.Message, "unused") {
			foundUnused = true
			if issue.Level != LintWarning {
				t.Errorf("expected warning level, got %v", issue.Level)
			}
		}
		if issue.Code == "UNUSED_LABEL" && strings.Contains(issue.Message, "start") {
			t.Error("the entry label at instruction 0 should be exempt from the unused check")
		}
	}
	if !foundUnused {
		t.Errorf("expected unused label warning, got: %v", issues)
	}
}

func TestLint_NoUnusedLabelWhenReferenced(t *testing.T) {
	source := `
start:	li a0, 10
	j loop
loop:	addi a0, a0, 1
	ret
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	for _, issue := range issues {
		if issue.Code == "UNUSED_LABEL" {
			t.Errorf("loop is referenced by j, should not be flagged unused: %v", issue)
		}
	}
}

func TestLint_UnreachableCodeAfterJ(t *testing.T) {
	source := `
start:	j done
	addi a0, a0, 1
done:	ret
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	found := false
	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unreachable code warning after an unconditional j, got: %v", issues)
	}
}

func TestLint_UnreachableCodeAfterRet(t *testing.T) {
	source := `
start:	ret
	addi a0, a0, 1
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	found := false
	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unreachable code warning after ret, got: %v", issues)
	}
}

func TestLint_ReachableAfterLabeledTarget(t *testing.T) {
	source := `
start:	j skip
skip:	addi a0, a0, 1
	ret
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			t.Errorf("instruction at a label target should not be unreachable: %v", issue)
		}
	}
}

func TestLint_CallFallsThrough(t *testing.T) {
	source := `
start:	call helper
	addi a0, a0, 1
	ret
helper:	ret
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			t.Errorf("call returns control, the following instruction is reachable: %v", issue)
		}
	}
}

func TestLint_X0Destination(t *testing.T) {
	source := `li x0, 10`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	found := false
	for _, issue := range issues {
		if issue.Code == "X0_DESTINATION" {
			found = true
			if issue.Level != LintInfo {
				t.Errorf("expected info level, got %v", issue.Level)
			}
		}
	}
	if !found {
		t.Errorf("expected x0 destination info, got: %v", issues)
	}
}

func TestLint_NoX0DestinationForOrdinaryRegister(t *testing.T) {
	source := `li a0, 10`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")

	for _, issue := range issues {
		if issue.Code == "X0_DESTINATION" {
			t.Errorf("a0 is not x0, should not be flagged: %v", issue)
		}
	}
}

func TestLint_NoIssuesForCleanProgram(t *testing.T) {
	source := `
start:	li a0, 10
loop:	addi a0, a0, -1
	bnez a0, loop
	ret
	`

	issues := NewLinter(DefaultLintOptions()).Lint(source, "test.s")
	for _, issue := range issues {
		if issue.Level == LintError {
			t.Errorf("unexpected error in a clean program: %v", issue)
		}
	}
}

func TestLint_DisabledChecks(t *testing.T) {
	source := `
start:	li a0, 10
unused:	ret
	`

	options := &LintOptions{CheckUnused: false, CheckReach: true, CheckRegUse: true}
	issues := NewLinter(options).Lint(source, "test.s")

	for _, issue := range issues {
		if issue.Code == "UNUSED_LABEL" {
			t.Error("CheckUnused is disabled, should not report unused labels")
		}
	}
}

func TestLintString_Convenience(t *testing.T) {
	issues := LintString("li a0, 10\nret", "test.s")
	for _, issue := range issues {
		if issue.Level == LintError {
			t.Errorf("unexpected error: %v", issue)
		}
	}
}

func TestHasErrors(t *testing.T) {
	clean := LintString("li a0, 10\nret", "test.s")
	if HasErrors(clean) {
		t.Error("clean program should report no errors")
	}

	broken := LintString("j nowhere", "test.s")
	if !HasErrors(broken) {
		t.Error("undefined label should report an error")
	}
}

func TestFormatIssues(t *testing.T) {
	issues := LintString("j nowhere", "test.s")
	out := FormatIssues(issues)
	if !strings.Contains(out, "nowhere") {
		t.Errorf("expected formatted output to mention the undefined label, got: %s", out)
	}
}
