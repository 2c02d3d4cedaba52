package trading

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/casualtrader/engine/internal/models"
)

// AgentHandle tracks one agent's in-flight cycle so status() and stop()
// can find it, and so HasOverlap-style per-agent serialization (P6) is
// enforced in process, not just in the database.
type AgentHandle struct {
	SessionID uuid.UUID
	Mode      models.ExecutionMode
	cancel    context.CancelFunc
}

// AgentStatus is what status() reports.
type AgentStatus struct {
	Running   bool
	SessionID uuid.UUID
	Mode      models.ExecutionMode
}

// Runner is the subset of CycleRunner the Lifecycle Manager drives —
// narrowed to ease testing with a stub. sessionID is minted by the
// caller so the handle returned from Start and the AgentSession row
// Run persists always agree.
type Runner interface {
	Run(ctx context.Context, sessionID uuid.UUID, agentID string, mode models.ExecutionMode) (*CycleOutcome, error)
}

// LifecycleManager enforces §4.7: at most one running cycle per agent,
// and at most MAX_CONCURRENT_EXECUTIONS running cycles overall, with
// guaranteed slot release on every exit path.
type LifecycleManager struct {
	mu     sync.Mutex
	active map[string]*AgentHandle
	sem    *semaphore.Weighted
	runner Runner
}

func NewLifecycleManager(runner Runner, maxConcurrent int64) *LifecycleManager {
	return &LifecycleManager{
		active: make(map[string]*AgentHandle),
		sem:    semaphore.NewWeighted(maxConcurrent),
		runner: runner,
	}
}

// Start launches a cycle for agentID in the background and returns its
// session id immediately. It fails fast with AgentBusy if agentID
// already has a running cycle, or CapacityExceeded if no global slot is
// available.
func (m *LifecycleManager) Start(ctx context.Context, agentID string, mode models.ExecutionMode) (uuid.UUID, error) {
	m.mu.Lock()
	if _, busy := m.active[agentID]; busy {
		m.mu.Unlock()
		return uuid.Nil, NewError(ErrAgentBusy, "agent already has a running cycle", nil)
	}
	if !m.sem.TryAcquire(1) {
		m.mu.Unlock()
		return uuid.Nil, NewError(ErrCapacityExceeded, "maximum concurrent executions reached", nil)
	}

	runCtx, cancel := context.WithCancel(ctx)
	sessionID := uuid.New()
	handle := &AgentHandle{SessionID: sessionID, Mode: mode, cancel: cancel}
	m.active[agentID] = handle
	m.mu.Unlock()

	go func() {
		defer m.release(agentID)
		_, _ = m.runner.Run(runCtx, sessionID, agentID, mode)
	}()

	return sessionID, nil
}

func (m *LifecycleManager) release(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, agentID)
	m.sem.Release(1)
}

// Stop cooperatively cancels agentID's running cycle, if any. The cycle
// itself decides how quickly it honors cancellation (checked at each
// Runtime turn/tool-call boundary).
func (m *LifecycleManager) Stop(agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.active[agentID]
	if !ok {
		return NewError(ErrAgentNotFound, "agent has no running cycle", nil)
	}
	handle.cancel()
	return nil
}

func (m *LifecycleManager) Status(agentID string) AgentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.active[agentID]
	if !ok {
		return AgentStatus{Running: false}
	}
	return AgentStatus{Running: true, SessionID: handle.SessionID, Mode: handle.Mode}
}
