package services

import (
	service "github.com/casualtrader/engine/internal/interfaces/service"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
)

type AgentService struct {
	repo      repo.AgentRepository
	lifecycle *trading.LifecycleManager
}

func NewAgentService(repo repo.AgentRepository, lifecycle *trading.LifecycleManager) service.AgentService {
	return &AgentService{repo: repo, lifecycle: lifecycle}
}

func (s *AgentService) Create(cfg *models.AgentConfig) error {
	cfg.CashBalance = cfg.InitialFunds
	return s.repo.Create(cfg)
}

func (s *AgentService) Get(agentID string) (*models.AgentConfig, error) {
	return s.repo.Get(agentID)
}

func (s *AgentService) List() ([]models.AgentConfig, error) {
	return s.repo.List()
}

// Update rejects edits to a currently running agent — config changes
// mid-cycle would let an agent observe a different policy than the one
// it started with.
func (s *AgentService) Update(agentID string, cfg *models.AgentConfig) error {
	if s.lifecycle.Status(agentID).Running {
		return trading.NewError(trading.ErrAgentBusy, "cannot update a running agent", nil)
	}
	existing, err := s.repo.Get(agentID)
	if err != nil {
		return err
	}
	cfg.AgentID = existing.AgentID
	cfg.InitialFunds = existing.InitialFunds
	cfg.CashBalance = existing.CashBalance
	return s.repo.Update(cfg)
}

func (s *AgentService) Delete(agentID string) error {
	if s.lifecycle.Status(agentID).Running {
		return trading.NewError(trading.ErrAgentBusy, "cannot delete a running agent", nil)
	}
	return s.repo.Delete(agentID)
}
