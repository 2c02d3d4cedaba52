package repository

import (
	"github.com/google/uuid"

	"github.com/casualtrader/engine/internal/models"
)

// SessionRepository persists AgentSession rows.
type SessionRepository interface {
	Create(session *models.AgentSession) error
	Get(sessionID uuid.UUID) (*models.AgentSession, error)
	Update(session *models.AgentSession) error
	ListByAgent(agentID string, limit, offset int) ([]models.AgentSession, error)
	// HasOverlap reports whether agentID has any session in the running
	// state — used to detect per-agent serialization breaches (P6).
	HasOverlap(agentID string) (bool, error)
}
