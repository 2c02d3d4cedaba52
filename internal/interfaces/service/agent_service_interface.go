package service

import "github.com/casualtrader/engine/internal/models"

// AgentService is the API-layer facade over AgentConfig persistence. It
// owns the "editable only while idle" rule (§3) that the repository
// layer deliberately does not enforce.
type AgentService interface {
	Create(cfg *models.AgentConfig) error
	Get(agentID string) (*models.AgentConfig, error)
	List() ([]models.AgentConfig, error)
	Update(agentID string, cfg *models.AgentConfig) error
	Delete(agentID string) error
}
