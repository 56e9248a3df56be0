package debugger

import (
	"testing"

	"github.com/rv32ttd/rv32ttd/vm"
)

func TestWatchpointManager_AddWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)

	if wp == nil {
		t.Fatal("AddWatchpoint returned nil")
	}
	if wp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", wp.ID)
	}
	if wp.Type != WatchWrite {
		t.Errorf("Wrong watchpoint type: got %d, want %d", wp.Type, WatchWrite)
	}
	if wp.Expression != "t0" {
		t.Errorf("Expression = %s, want t0", wp.Expression)
	}
	if !wp.IsRegister {
		t.Error("Should be register watchpoint")
	}
	if !wp.Enabled {
		t.Error("Watchpoint should be enabled by default")
	}
	if wp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", wp.HitCount)
	}
}

func TestWatchpointManager_AddMultiple(t *testing.T) {
	wm := NewWatchpointManager()

	wp1 := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)
	wp2 := wm.AddWatchpoint(WatchRead, "[0x1000]", 0x1000, false, 0)

	if wp1.ID == wp2.ID {
		t.Error("Watchpoint IDs should be unique")
	}
	if wm.Count() != 2 {
		t.Errorf("Expected 2 watchpoints, got %d", wm.Count())
	}
}

func TestWatchpointManager_DeleteWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)

	if err := wm.DeleteWatchpoint(wp.ID); err != nil {
		t.Fatalf("DeleteWatchpoint failed: %v", err)
	}
	if wm.GetWatchpoint(wp.ID) != nil {
		t.Error("Watchpoint not deleted")
	}
	if err := wm.DeleteWatchpoint(999); err == nil {
		t.Error("Expected error when deleting non-existent watchpoint")
	}
}

func TestWatchpointManager_EnableDisable(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)

	if err := wm.DisableWatchpoint(wp.ID); err != nil {
		t.Fatalf("DisableWatchpoint failed: %v", err)
	}
	if wp.Enabled {
		t.Error("Watchpoint not disabled")
	}

	if err := wm.EnableWatchpoint(wp.ID); err != nil {
		t.Fatalf("EnableWatchpoint failed: %v", err)
	}
	if !wp.Enabled {
		t.Error("Watchpoint not enabled")
	}
}

func TestWatchpointManager_CheckWatchpoints_Register(t *testing.T) {
	wm := NewWatchpointManager()
	exec := vm.NewExecutor(vm.NewProgram(nil, nil), vm.DefaultExecConfig())

	wp := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)

	if err := exec.Set(vm.T0, 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := wm.InitializeWatchpoint(wp.ID, exec); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}
	if wp.LastValue != 100 {
		t.Errorf("LastValue = %d, want 100", wp.LastValue)
	}

	if triggered, changed := wm.CheckWatchpoints(exec); triggered != nil || changed {
		t.Error("Should not trigger when value hasn't changed")
	}

	if err := exec.Set(vm.T0, 200); err != nil {
		t.Fatalf("Set: %v", err)
	}
	triggered, changed := wm.CheckWatchpoints(exec)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when value changes")
	}
	if triggered.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", triggered.ID, wp.ID)
	}
	if wp.HitCount != 1 {
		t.Errorf("Hit count = %d, want 1", wp.HitCount)
	}
	if wp.LastValue != 200 {
		t.Errorf("LastValue not updated: got %d, want 200", wp.LastValue)
	}
}

func TestWatchpointManager_CheckWatchpoints_Memory(t *testing.T) {
	wm := NewWatchpointManager()
	cfg := vm.DefaultExecConfig()
	cfg.Memory.AllowUnaligned = true
	exec := vm.NewExecutor(vm.NewProgram(nil, nil), cfg)

	addr := uint32(0x1000)

	wp := wm.AddWatchpoint(WatchWrite, "[0x1000]", addr, false, 0)

	if err := exec.Memory().Store(addr, 0x12345678, vm.Sw); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := wm.InitializeWatchpoint(wp.ID, exec); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}

	if triggered, changed := wm.CheckWatchpoints(exec); triggered != nil || changed {
		t.Error("Should not trigger when value hasn't changed")
	}

	if err := exec.Memory().Store(addr, int32(uint32(0xABCDEF00)), vm.Sw); err != nil {
		t.Fatalf("Store: %v", err)
	}
	triggered, changed := wm.CheckWatchpoints(exec)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when value changes")
	}
	if triggered.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", triggered.ID, wp.ID)
	}
}

func TestWatchpointManager_Disabled(t *testing.T) {
	wm := NewWatchpointManager()
	exec := vm.NewExecutor(vm.NewProgram(nil, nil), vm.DefaultExecConfig())

	wp := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)
	_ = wm.InitializeWatchpoint(wp.ID, exec)
	_ = wm.DisableWatchpoint(wp.ID)

	_ = exec.Set(vm.T0, 100)

	if triggered, _ := wm.CheckWatchpoints(exec); triggered != nil {
		t.Error("Disabled watchpoint should not trigger")
	}
}

func TestWatchpointManager_GetAllWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)
	wm.AddWatchpoint(WatchRead, "t1", 0, true, vm.T1)
	wm.AddWatchpoint(WatchReadWrite, "[0x1000]", 0x1000, false, 0)

	all := wm.GetAllWatchpoints()
	if len(all) != 3 {
		t.Errorf("Expected 3 watchpoints, got %d", len(all))
	}
}

func TestWatchpointManager_Clear(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)
	wm.AddWatchpoint(WatchRead, "t1", 0, true, vm.T1)

	wm.Clear()

	if wm.Count() != 0 {
		t.Errorf("Expected 0 watchpoints after clear, got %d", wm.Count())
	}
}

func TestWatchpoint_Types(t *testing.T) {
	wm := NewWatchpointManager()

	wpWrite := wm.AddWatchpoint(WatchWrite, "t0", 0, true, vm.T0)
	wpRead := wm.AddWatchpoint(WatchRead, "t1", 0, true, vm.T1)
	wpAccess := wm.AddWatchpoint(WatchReadWrite, "t2", 0, true, vm.T2)

	if wpWrite.Type != WatchWrite {
		t.Error("Wrong type for write watchpoint")
	}
	if wpRead.Type != WatchRead {
		t.Error("Wrong type for read watchpoint")
	}
	if wpAccess.Type != WatchReadWrite {
		t.Error("Wrong type for access watchpoint")
	}
}
