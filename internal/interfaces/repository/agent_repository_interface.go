package repository

import "github.com/casualtrader/engine/internal/models"

// AgentRepository persists AgentConfig rows. Deleting a config cascades
// to its sessions, transactions, holdings, snapshots and memory entries
// (§3, "Ownership"). Cash mutation under row lock lives in
// internal/trading.ExecuteTradeAtomic, not here — it needs to share a
// single DB transaction with the Holding and Transaction writes.
type AgentRepository interface {
	Create(cfg *models.AgentConfig) error
	Get(agentID string) (*models.AgentConfig, error)
	List() ([]models.AgentConfig, error)
	Update(cfg *models.AgentConfig) error
	Delete(agentID string) error
}
