package trading_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
)

// blockingRunner lets a test control exactly when a cycle "finishes" and
// observe the context it was handed, without any real Cycle Runner.
type blockingRunner struct {
	started chan string
	release chan struct{}
	sawDone chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan string, 8),
		release: make(chan struct{}),
		sawDone: make(chan struct{}, 8),
	}
}

func (r *blockingRunner) Run(ctx context.Context, sessionID uuid.UUID, agentID string, mode models.ExecutionMode) (*trading.CycleOutcome, error) {
	r.started <- agentID
	select {
	case <-r.release:
	case <-ctx.Done():
		r.sawDone <- struct{}{}
	}
	return &trading.CycleOutcome{SessionID: sessionID}, nil
}

func waitFor(t *testing.T, ch <-chan string, timeout time.Duration) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatal("timed out waiting for cycle to start")
		return ""
	}
}

func TestLifecycleManager_StartRejectsSecondRunForSameAgent(t *testing.T) {
	runner := newBlockingRunner()
	mgr := trading.NewLifecycleManager(runner, 10)

	_, err := mgr.Start(context.Background(), "agent-1", models.ModeTrading)
	require.NoError(t, err)
	waitFor(t, runner.started, time.Second)

	_, err = mgr.Start(context.Background(), "agent-1", models.ModeTrading)
	require.Error(t, err)
	assert.Equal(t, trading.ErrAgentBusy, trading.KindOf(err))

	close(runner.release)
}

func TestLifecycleManager_StartRejectsBeyondGlobalCapacity(t *testing.T) {
	runner := newBlockingRunner()
	mgr := trading.NewLifecycleManager(runner, 1)

	_, err := mgr.Start(context.Background(), "agent-1", models.ModeTrading)
	require.NoError(t, err)
	waitFor(t, runner.started, time.Second)

	_, err = mgr.Start(context.Background(), "agent-2", models.ModeTrading)
	require.Error(t, err)
	assert.Equal(t, trading.ErrCapacityExceeded, trading.KindOf(err))

	close(runner.release)
}

func TestLifecycleManager_SlotReleasedAfterCompletion(t *testing.T) {
	runner := newBlockingRunner()
	mgr := trading.NewLifecycleManager(runner, 1)

	_, err := mgr.Start(context.Background(), "agent-1", models.ModeTrading)
	require.NoError(t, err)
	waitFor(t, runner.started, time.Second)

	close(runner.release)

	require.Eventually(t, func() bool {
		return !mgr.Status("agent-1").Running
	}, time.Second, 5*time.Millisecond)

	_, err = mgr.Start(context.Background(), "agent-2", models.ModeTrading)
	assert.NoError(t, err, "slot and agent lock must both be released once the cycle returns")
	waitFor(t, runner.started, time.Second)
}

func TestLifecycleManager_StopCancelsRunningCycle(t *testing.T) {
	runner := newBlockingRunner()
	mgr := trading.NewLifecycleManager(runner, 1)

	_, err := mgr.Start(context.Background(), "agent-1", models.ModeTrading)
	require.NoError(t, err)
	waitFor(t, runner.started, time.Second)

	require.NoError(t, mgr.Stop("agent-1"))

	select {
	case <-runner.sawDone:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the running cycle's context")
	}
}

func TestLifecycleManager_StopUnknownAgentIsAnError(t *testing.T) {
	mgr := trading.NewLifecycleManager(newBlockingRunner(), 1)
	err := mgr.Stop("nonexistent")
	require.Error(t, err)
	assert.Equal(t, trading.ErrAgentNotFound, trading.KindOf(err))
}

func TestLifecycleManager_StatusReflectsModeAndSession(t *testing.T) {
	runner := newBlockingRunner()
	mgr := trading.NewLifecycleManager(runner, 1)

	sessionID, err := mgr.Start(context.Background(), "agent-1", models.ModeRebalancing)
	require.NoError(t, err)
	waitFor(t, runner.started, time.Second)

	status := mgr.Status("agent-1")
	assert.True(t, status.Running)
	assert.Equal(t, models.ModeRebalancing, status.Mode)
	assert.Equal(t, sessionID, status.SessionID)

	close(runner.release)
}
