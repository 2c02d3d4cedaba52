package services

import (
	"context"

	"github.com/google/uuid"

	service "github.com/casualtrader/engine/internal/interfaces/service"
	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
)

type ExecutionService struct {
	lifecycle *trading.LifecycleManager
	bg        context.Context
}

// NewExecutionService takes the long-lived background context each
// started cycle inherits — cancelled only on process shutdown, not per
// request, so a cycle survives past the HTTP request that started it.
func NewExecutionService(lifecycle *trading.LifecycleManager, bg context.Context) service.ExecutionService {
	return &ExecutionService{lifecycle: lifecycle, bg: bg}
}

func (s *ExecutionService) Start(agentID string, mode models.ExecutionMode) (uuid.UUID, error) {
	return s.lifecycle.Start(s.bg, agentID, mode)
}

func (s *ExecutionService) Stop(agentID string) error {
	return s.lifecycle.Stop(agentID)
}

func (s *ExecutionService) Status(agentID string) trading.AgentStatus {
	return s.lifecycle.Status(agentID)
}
