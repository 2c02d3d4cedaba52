package service

import (
	"github.com/google/uuid"

	"github.com/casualtrader/engine/internal/models"
)

// PortfolioService is the read-only API-layer facade over holdings,
// transactions and snapshots — it never mutates state (that is the
// Trade Execution Primitive's exclusive job, §4.5).
type PortfolioService interface {
	Holdings(agentID string) ([]models.Holding, error)
	Transactions(agentID string, limit, offset int) ([]models.Transaction, error)
	TransactionsBySession(sessionID uuid.UUID) ([]models.Transaction, error)
	Snapshots(agentID string, limit int) ([]models.PortfolioSnapshot, error)
	LatestSnapshot(agentID string) (*models.PortfolioSnapshot, error)
	Sessions(agentID string, limit, offset int) ([]models.AgentSession, error)
}
