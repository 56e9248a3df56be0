package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rv32ttd/rv32ttd/vm"
)

// TUI represents the text user interface for the debugger
type TUI struct {
	// Core components
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	// Layout containers
	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	// View panels
	SourceView      *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	StackView       *tview.TextView
	DisassemblyView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	// State
	CurrentAddress uint32
	MemoryAddress  uint32
	StackAddress   uint32
	Running        bool

	// Source code cache
	SourceLines []string
	SourceFile  string
}

// NewTUI creates a new text user interface
func NewTUI(debugger *Debugger) *TUI {
	tui := &TUI{
		Debugger:       debugger,
		App:            tview.NewApplication(),
		CurrentAddress: 0,
		MemoryAddress:  0,
		StackAddress:   0,
		Running:        false,
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	return tui
}

// NewTUIWithScreen creates a TUI bound to an explicit tcell.Screen, for
// tests that drive the application against a simulation screen instead
// of a real terminal.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	tui := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication().SetScreen(screen),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	return tui
}

// initializeViews creates all the view panels
func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.DisassemblyView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// buildLayout constructs the TUI layout
func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.DisassemblyView, 0, 2, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 10, 0, false).
		AddItem(t.MemoryView, 0, 1, false).
		AddItem(t.StackView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

// setupKeyBindings sets up keyboard shortcuts
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyF12:
			t.executeCommand("reverse")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// handleCommand processes command input
func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

// executeCommand executes a debugger command
func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)

	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Debugger.Running {
		for t.Debugger.Running {
			if shouldBreak, reason := t.Debugger.ShouldBreak(); shouldBreak {
				t.Debugger.Running = false
				t.WriteOutput(fmt.Sprintf("Stopped: %s at PC=0x%08X\n", reason, t.Debugger.Exec.PC()))
				break
			}
			if _, err := t.Debugger.Exec.Execute(); err != nil {
				t.Debugger.Running = false
				if _, finished := err.(*vm.FinishedError); finished {
					t.WriteOutput(fmt.Sprintf("Program finished at PC=0x%08X\n", t.Debugger.Exec.PC()))
					break
				}
				t.WriteOutput(fmt.Sprintf("[red]Runtime error:[white] %v\n", err))
				break
			}
		}
	}

	t.RefreshAll()
}

// WriteOutput writes to the output view
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text)) // Ignore write errors in TUI
	t.OutputView.ScrollToEnd()
}

// RefreshAll refreshes all view panels
func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateStackView()
	t.UpdateDisassemblyView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateSourceView updates the source code view
func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()

	if len(t.Debugger.SourceMap) == 0 {
		t.SourceView.SetText("[yellow]No source code available[white]")
		return
	}

	pc := t.Debugger.Exec.PC()

	var lines []string
	startAddr := uint32(0)
	if pc > 20*4 {
		startAddr = pc - 20*4
	}

	for addr := startAddr; addr < pc+40*4; addr += 4 {
		if sourceLine, exists := t.Debugger.SourceMap[addr]; exists {
			marker := "  "
			color := "white"
			if addr == pc {
				marker = "->"
				color = "yellow"
			}

			if t.Debugger.Breakpoints.GetBreakpoint(addr) != nil {
				marker = "* "
			}

			line := fmt.Sprintf("[%s]%s 0x%08X: %s[white]", color, marker, addr, sourceLine)
			lines = append(lines, line)
		}
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateRegisterView updates the register view
func (t *TUI) UpdateRegisterView() {
	t.RegisterView.Clear()

	regs := t.Debugger.Exec.Registers()
	var lines []string

	for i := 0; i < vm.NumRegisters; i += 4 {
		var cols []string
		for j := 0; j < 4 && i+j < vm.NumRegisters; j++ {
			reg := vm.RegisterID(i + j)
			cols = append(cols, fmt.Sprintf("%-4s: 0x%08X", reg.String(), uint32(regs.Get(reg))))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("pc: 0x%08X", t.Debugger.Exec.PC()))
	lines = append(lines, fmt.Sprintf("executed: %d  call depth: %d", t.Debugger.Exec.Executed(), t.Debugger.Exec.ShadowDepth()))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

// UpdateMemoryView updates the memory view
func (t *TUI) UpdateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.Exec.PC()
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: 0x%08X[white]", addr))

	for row := 0; row < MemoryDisplayRows; row++ {
		rowOffset, err := vm.SafeIntToUint32(row * MemoryDisplayBytesPerRow)
		if err != nil {
			break // Should never happen
		}
		rowAddr := addr + rowOffset

		line := fmt.Sprintf("0x%08X: ", rowAddr)

		var hexBytes []string
		var asciiBytes []byte

		for col := 0; col < MemoryDisplayColumns; col++ {
			colOffset, err := vm.SafeIntToUint32(col)
			if err != nil {
				break // Should never happen
			}
			byteAddr := rowAddr + colOffset
			val, err := t.Debugger.Exec.Memory().Load(byteAddr, vm.Lbu)
			if err != nil {
				hexBytes = append(hexBytes, "??")
				asciiBytes = append(asciiBytes, '.')
				continue
			}
			b := byte(val)
			hexBytes = append(hexBytes, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				asciiBytes = append(asciiBytes, b)
			} else {
				asciiBytes = append(asciiBytes, '.')
			}
		}

		line += strings.Join(hexBytes, " ") + "  " + string(asciiBytes)
		lines = append(lines, line)
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// UpdateStackView updates the stack view
func (t *TUI) UpdateStackView() {
	t.StackView.Clear()

	sp := uint32(t.Debugger.Exec.Registers().Get(vm.SP))

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Stack Pointer: 0x%08X[white]", sp))

	for i := 0; i < StackDisplayWords; i++ {
		offset, err := vm.SafeIntToUint32(i * 4)
		if err != nil {
			break // Should never happen
		}
		addr := sp + offset

		word, err := t.Debugger.Exec.Memory().Load(addr, vm.Lw)
		if err != nil {
			lines = append(lines, fmt.Sprintf("0x%08X: ????????", addr))
			continue
		}

		marker := "  "
		if addr == sp {
			marker = "->"
		}

		line := fmt.Sprintf("%s 0x%08X: 0x%08X", marker, addr, uint32(word))

		if sym := t.findSymbolForAddress(uint32(word)); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}

		lines = append(lines, line)
	}

	t.StackView.SetText(strings.Join(lines, "\n"))
}

// UpdateDisassemblyView updates the disassembly view
func (t *TUI) UpdateDisassemblyView() {
	t.DisassemblyView.Clear()

	pc := t.Debugger.Exec.PC()
	program := t.Debugger.Exec.Program()

	var lines []string

	startAddr := uint32(0)
	if pc > 8*4 {
		startAddr = pc - 8*4
	}

	for i := 0; i < 16; i++ {
		offset, err := vm.SafeIntToUint32(i * 4)
		if err != nil {
			break // Should never happen
		}
		addr := startAddr + offset

		instr, ok := program.At(addr)
		if !ok {
			continue
		}

		marker := "  "
		color := "white"
		if addr == pc {
			marker = "->"
			color = "yellow"
		}

		if t.Debugger.Breakpoints.GetBreakpoint(addr) != nil {
			marker = "* "
		}

		line := fmt.Sprintf("[%s]%s 0x%08X: %s[white]", color, marker, addr, formatInstruction(instr))

		if sym := t.findSymbolForAddress(addr); sym != "" {
			line = fmt.Sprintf("[%s]%s 0x%08X: %s  <%s>[white]", color, marker, addr, formatInstruction(instr), sym)
		}

		lines = append(lines, line)
	}

	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

// formatInstruction renders instr in assembly-source form, mirroring
// what the assembler accepted for it.
func formatInstruction(instr vm.Instruction) string {
	op := instr.Op.String()
	switch instr.Op {
	case vm.OpAddi, vm.OpSlti, vm.OpSltiu, vm.OpXori, vm.OpOri, vm.OpAndi, vm.OpSlli, vm.OpSrli, vm.OpSrai:
		return fmt.Sprintf("%s %s, %s, %d", op, instr.Rd, instr.R1, instr.Imm)
	case vm.OpAdd, vm.OpSub, vm.OpSll, vm.OpSlt, vm.OpSltu, vm.OpXor, vm.OpSrl, vm.OpSra, vm.OpOr, vm.OpAnd:
		return fmt.Sprintf("%s %s, %s, %s", op, instr.Rd, instr.R1, instr.R2)
	case vm.OpLw, vm.OpLh, vm.OpLhu, vm.OpLb, vm.OpLbu:
		return fmt.Sprintf("%s %s, %d(%s)", op, instr.Rd, instr.Offset, instr.R1)
	case vm.OpSw, vm.OpSh, vm.OpSb:
		return fmt.Sprintf("%s %s, %d(%s)", op, instr.R2, instr.Offset, instr.R1)
	case vm.OpBeq, vm.OpBne, vm.OpBlt, vm.OpBge, vm.OpBltu, vm.OpBgeu, vm.OpBgt, vm.OpBle, vm.OpBgtu, vm.OpBleu:
		return fmt.Sprintf("%s %s, %s, %s", op, instr.R1, instr.R2, instr.Label)
	case vm.OpBeqz, vm.OpBnez, vm.OpBltz, vm.OpBgez, vm.OpBgtz, vm.OpBlez:
		return fmt.Sprintf("%s %s, %s", op, instr.R1, instr.Label)
	case vm.OpLui, vm.OpLi:
		return fmt.Sprintf("%s %s, %d", op, instr.Rd, instr.Imm)
	case vm.OpMv, vm.OpNot, vm.OpNeg:
		return fmt.Sprintf("%s %s, %s", op, instr.Rd, instr.R1)
	case vm.OpCall, vm.OpJ:
		return fmt.Sprintf("%s %s", op, instr.Label)
	case vm.OpJal:
		return fmt.Sprintf("%s %s, %s", op, instr.Rd, instr.Label)
	case vm.OpJalr:
		return fmt.Sprintf("%s %s, %d, %s", op, instr.Rd, instr.Offset, instr.R1)
	case vm.OpJr:
		return fmt.Sprintf("%s %s", op, instr.R1)
	case vm.OpRet:
		return "ret"
	default:
		return op
	}
}

// UpdateBreakpointsView updates the breakpoints and watchpoints view
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status := "enabled"
			color := "green"
			if !bp.Enabled {
				status = "disabled"
				color = "red"
			}

			line := fmt.Sprintf("  %d: [%s]%s[white] 0x%08X", bp.ID, color, status, bp.Address)

			if sym := t.findSymbolForAddress(bp.Address); sym != "" {
				line += fmt.Sprintf(" <%s>", sym)
			}

			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}

			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)

			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			typeStr := "watch"
			if wp.Type == WatchRead {
				typeStr = "rwatch"
			} else if wp.Type == WatchReadWrite {
				typeStr = "awatch"
			}

			line := fmt.Sprintf("  %d: %s %s = 0x%08X", wp.ID, typeStr, wp.Expression, uint32(wp.LastValue))
			lines = append(lines, line)
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// findSymbolForAddress finds a label name for an address
func (t *TUI) findSymbolForAddress(addr uint32) string {
	for sym, idx := range t.Debugger.Exec.Program().Labels {
		if uint32(idx)*4 == addr {
			return sym
		}
	}
	return ""
}

// Run starts the TUI application
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]rv32ttd Debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F10 to step over, F11 to step, F12 to step back\n")
	t.WriteOutput("Type 'help' for command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI application
func (t *TUI) Stop() {
	t.App.Stop()
}

// LoadSource loads source code for display
func (t *TUI) LoadSource(filename string, lines []string) {
	t.SourceFile = filename
	t.SourceLines = lines
	t.UpdateSourceView()
}
