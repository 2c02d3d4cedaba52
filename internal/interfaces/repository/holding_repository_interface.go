package repository

import "github.com/casualtrader/engine/internal/models"

// HoldingRepository reads Holding rows. Mutation happens only inside
// internal/trading.ExecuteTradeAtomic.
type HoldingRepository interface {
	Get(agentID, ticker string) (*models.Holding, error)
	ListByAgent(agentID string) ([]models.Holding, error)
}
