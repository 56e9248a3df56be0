package api

import (
	"time"

	"github.com/rv32ttd/rv32ttd/vm"
)

// SessionCreateRequest represents a request to create a new session
type SessionCreateRequest struct {
	Source string `json:"source"` // Assembly source code
}

// SessionCreateResponse represents the response from creating a session
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse represents the current status of a session
type SessionStatusResponse struct {
	SessionID string `json:"sessionId"`
	PC        uint32 `json:"pc"`
	Executed  uint64 `json:"executed"`
	CallDepth int    `json:"callDepth"`
	Error     string `json:"error,omitempty"`
}

// RegistersResponse represents the current register state
type RegistersResponse struct {
	Registers [vm.NumRegisters]int32 `json:"registers"`
	PC        uint32                 `json:"pc"`
	Executed  uint64                 `json:"executed"`
}

// ToRegistersResponse converts an executor's live state to an API response.
func ToRegistersResponse(exec *vm.Executor) RegistersResponse {
	return RegistersResponse{
		Registers: exec.Registers().Regs,
		PC:        exec.PC(),
		Executed:  exec.Executed(),
	}
}

// MemoryRequest represents a request for memory data
type MemoryRequest struct {
	Address uint32 `json:"address"`
	Length  uint32 `json:"length"`
}

// MemoryResponse represents memory data
type MemoryResponse struct {
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
}

// BreakpointRequest represents a request to add/remove a breakpoint
type BreakpointRequest struct {
	Address uint32 `json:"address"`
	Remove  bool   `json:"remove,omitempty"`
}

// BreakpointsResponse represents a list of breakpoints
type BreakpointsResponse struct {
	Breakpoints []uint32 `json:"breakpoints"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Event represents a WebSocket event
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// StateEvent represents a state change event pushed after every
// execute/run/revert call.
type StateEvent struct {
	PC        uint32                 `json:"pc"`
	Registers [vm.NumRegisters]int32 `json:"registers"`
	Executed  uint64                 `json:"executed"`
	CallDepth int                    `json:"callDepth"`
}

// stateEventFor builds a StateEvent snapshot of exec's current state.
func stateEventFor(exec *vm.Executor) StateEvent {
	return StateEvent{
		PC:        exec.PC(),
		Registers: exec.Registers().Regs,
		Executed:  exec.Executed(),
		CallDepth: exec.ShadowDepth(),
	}
}

// OutputEvent represents console output
type OutputEvent struct {
	Stream  string `json:"stream"`  // "stdout" or "stderr"
	Content string `json:"content"` // Output content
}

// ExecutionEvent represents execution events like breakpoints or faults
type ExecutionEvent struct {
	Event   string `json:"event"` // "breakpoint_hit", "error", "finished"
	Address uint32 `json:"address,omitempty"`
	Message string `json:"message,omitempty"`
}
