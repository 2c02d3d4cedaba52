package repository

import "github.com/casualtrader/engine/internal/models"

// SnapshotRepository persists and reads PortfolioSnapshot rows.
type SnapshotRepository interface {
	Create(snapshot *models.PortfolioSnapshot) error
	Latest(agentID string) (*models.PortfolioSnapshot, error)
	ListByAgent(agentID string, limit int) ([]models.PortfolioSnapshot, error)
}
