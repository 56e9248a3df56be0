package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/rv32ttd/rv32ttd/config"
	"github.com/rv32ttd/rv32ttd/loader"
	"github.com/rv32ttd/rv32ttd/vm"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when trying to create a session with an existing ID
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Session is one active debugging session: its own *vm.Executor behind
// its own mutex. Sessions never share an executor.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	exec        *vm.Executor
	breakpoints map[uint32]bool
	maxCycles   uint64
}

// Exec returns the session's executor and a function to release the
// session's lock; callers must defer the returned unlock.
func (s *Session) Exec() (*vm.Executor, func()) {
	s.mu.Lock()
	return s.exec, s.mu.Unlock
}

// AddBreakpoint arms a breakpoint at pc.
func (s *Session) AddBreakpoint(pc uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakpoints[pc] = true
}

// RemoveBreakpoint disarms a breakpoint at pc.
func (s *Session) RemoveBreakpoint(pc uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.breakpoints, pc)
}

// Breakpoints returns the armed breakpoint addresses.
func (s *Session) Breakpoints() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]uint32, 0, len(s.breakpoints))
	for pc := range s.breakpoints {
		addrs = append(addrs, pc)
	}
	return addrs
}

// hasBreakpoint reports whether pc is armed. Caller must hold s.mu.
func (s *Session) hasBreakpoint(pc uint32) bool {
	return s.breakpoints[pc]
}

// RunToBreakpointOrHalt runs the executor forward, one instruction at a
// time, stopping when a breakpoint is hit, the program finishes, or
// MaxCycles is exceeded. It returns true if a breakpoint stopped it.
func (s *Session) RunToBreakpointOrHalt() (hitBreakpoint bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxCycles := s.maxCycles
	for {
		if maxCycles > 0 && s.exec.Executed() >= maxCycles {
			return false, nil
		}
		if _, err := s.exec.Execute(); err != nil {
			if _, finished := err.(*vm.FinishedError); finished {
				return false, nil
			}
			return false, err
		}
		if s.hasBreakpoint(s.exec.PC()) {
			return true, nil
		}
	}
}

// SessionManager manages multiple concurrent debugging sessions.
type SessionManager struct {
	cfg         *config.Config
	sessions    map[string]*Session
	broadcaster *Broadcaster
	mu          sync.RWMutex
}

// NewSessionManager creates a new session manager bound to cfg (used to
// resolve each new session's ExecConfig) and broadcaster (may be nil).
func NewSessionManager(cfg *config.Config, broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		cfg:         cfg,
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession assembles source and creates a new session running it.
func (sm *SessionManager) CreateSession(source string) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	exec, err := loader.LoadSource(source, sessionID+".s", sm.cfg)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:          sessionID,
		CreatedAt:   time.Now(),
		exec:        exec,
		breakpoints: make(map[uint32]bool),
		maxCycles:   sm.cfg.Execution.MaxCycles,
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; exists {
		return nil, ErrSessionAlreadyExists
	}

	sm.sessions[sessionID] = session

	if sm.broadcaster != nil {
		sm.broadcaster.BroadcastState(sessionID, stateEventFor(exec))
	}

	return session, nil
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// DestroySession removes a session by ID
func (sm *SessionManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}

	delete(sm.sessions, sessionID)
	return nil
}

// ListSessions returns a list of all session IDs
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.sessions)
}

// notify broadcasts exec's current state on sessionID's channel, if a
// broadcaster is configured.
func (sm *SessionManager) notify(sessionID string, exec *vm.Executor) {
	if sm.broadcaster == nil {
		return
	}
	sm.broadcaster.BroadcastState(sessionID, stateEventFor(exec))
}

// generateSessionID generates a unique session ID
func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
