package service

import (
	"github.com/google/uuid"

	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
)

// ExecutionService is the API-layer facade over the Lifecycle Manager.
type ExecutionService interface {
	Start(agentID string, mode models.ExecutionMode) (uuid.UUID, error)
	Stop(agentID string) error
	Status(agentID string) trading.AgentStatus
}
