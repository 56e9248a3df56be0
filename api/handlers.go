package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/rv32ttd/rv32ttd/vm"
)

// handleCreateSession handles POST /api/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.sessions.CreateSession(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to create session: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, SessionCreateResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// handleListSessions handles GET /api/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}

// handleGetSessionStatus handles GET /api/sessions/{id}.
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	exec, unlock := session.Exec()
	defer unlock()

	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID: sessionID,
		PC:        exec.PC(),
		Executed:  exec.Executed(),
		CallDepth: exec.ShadowDepth(),
	})
}

// handleDestroySession handles DELETE /api/sessions/{id}.
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "session destroyed",
	})
}

// handleStep handles POST /api/sessions/{id}/step: a single Execute().
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	exec, unlock := session.Exec()
	_, stepErr := exec.Execute()
	unlock()

	if stepErr != nil {
		if _, finished := stepErr.(*vm.FinishedError); finished {
			writeJSON(w, http.StatusOK, ExecutionEvent{Event: "finished", Address: exec.PC()})
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("step failed: %v", stepErr))
		return
	}

	s.sessions.notify(sessionID, exec)
	writeJSON(w, http.StatusOK, ToRegistersResponse(exec))
}

// handleRun handles POST /api/sessions/{id}/run: runs until a breakpoint
// is hit, the program finishes, or MaxCycles is exceeded.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	hitBreakpoint, runErr := session.RunToBreakpointOrHalt()
	exec, unlock := session.Exec()
	state := ToRegistersResponse(exec)
	unlock()

	if runErr != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("run failed: %v", runErr))
		return
	}

	s.sessions.notify(sessionID, exec)

	if hitBreakpoint {
		s.broadcaster.BroadcastExecutionEvent(sessionID, "breakpoint_hit", map[string]interface{}{"pc": exec.PC()})
	}

	writeJSON(w, http.StatusOK, state)
}

// handleRevert handles POST /api/sessions/{id}/revert: one step back.
func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	exec, unlock := session.Exec()
	_, revertErr := exec.Revert()
	unlock()

	if revertErr != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("revert failed: %v", revertErr))
		return
	}

	s.sessions.notify(sessionID, exec)
	writeJSON(w, http.StatusOK, ToRegistersResponse(exec))
}

// handleGetRegisters handles GET /api/sessions/{id}/registers.
func (s *Server) handleGetRegisters(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	exec, unlock := session.Exec()
	defer unlock()

	writeJSON(w, http.StatusOK, ToRegistersResponse(exec))
}

// handleGetMemory handles GET /api/sessions/{id}/memory?addr=&len=.
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	query := r.URL.Query()
	addr, err := parseHexOrDec(query.Get("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid addr parameter")
		return
	}

	length, err := strconv.ParseUint(query.Get("len"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid len parameter")
		return
	}

	const maxMemoryRead = 1024 * 1024
	if length > maxMemoryRead {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("len too large (max %d bytes)", maxMemoryRead))
		return
	}

	exec, unlock := session.Exec()
	defer unlock()

	data := make([]byte, length)
	for i := uint64(0); i < length; i++ {
		val, loadErr := exec.Memory().Load(uint32(addr)+uint32(i), vm.Lbu) // #nosec G115 -- addr/length validated above
		if loadErr != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("memory read failed at offset %d: %v", i, loadErr))
			return
		}
		data[i] = byte(val)
	}

	writeJSON(w, http.StatusOK, MemoryResponse{
		Address: uint32(addr), // #nosec G115 -- addr validated above
		Data:    data,
	})
}

// handleBreakpoints handles POST /api/sessions/{id}/breakpoints (add or,
// with "remove": true, disarm).
func (s *Server) handleBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req BreakpointRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Remove {
			session.RemoveBreakpoint(req.Address)
			writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "breakpoint removed"})
			return
		}

		session.AddBreakpoint(req.Address)
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "breakpoint added"})

	case http.MethodGet:
		writeJSON(w, http.StatusOK, BreakpointsResponse{Breakpoints: session.Breakpoints()})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// parseHexOrDec parses a string as hexadecimal (0x prefix) or decimal.
func parseHexOrDec(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	if len(s) > 2 && s[:2] == "0x" {
		return strconv.ParseUint(s[2:], 16, 32)
	}
	return strconv.ParseUint(s, 10, 32)
}
