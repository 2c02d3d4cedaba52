package services

import (
	"github.com/google/uuid"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	service "github.com/casualtrader/engine/internal/interfaces/service"
	"github.com/casualtrader/engine/internal/models"
)

type PortfolioService struct {
	holdings     repo.HoldingRepository
	transactions repo.TransactionRepository
	snapshots    repo.SnapshotRepository
	sessions     repo.SessionRepository
}

func NewPortfolioService(
	holdings repo.HoldingRepository,
	transactions repo.TransactionRepository,
	snapshots repo.SnapshotRepository,
	sessions repo.SessionRepository,
) service.PortfolioService {
	return &PortfolioService{holdings: holdings, transactions: transactions, snapshots: snapshots, sessions: sessions}
}

func (s *PortfolioService) Holdings(agentID string) ([]models.Holding, error) {
	return s.holdings.ListByAgent(agentID)
}

func (s *PortfolioService) Transactions(agentID string, limit, offset int) ([]models.Transaction, error) {
	return s.transactions.ListByAgent(agentID, limit, offset)
}

func (s *PortfolioService) TransactionsBySession(sessionID uuid.UUID) ([]models.Transaction, error) {
	return s.transactions.ListBySession(sessionID)
}

func (s *PortfolioService) Snapshots(agentID string, limit int) ([]models.PortfolioSnapshot, error) {
	return s.snapshots.ListByAgent(agentID, limit)
}

func (s *PortfolioService) LatestSnapshot(agentID string) (*models.PortfolioSnapshot, error) {
	return s.snapshots.Latest(agentID)
}

func (s *PortfolioService) Sessions(agentID string, limit, offset int) ([]models.AgentSession, error) {
	return s.sessions.ListByAgent(agentID, limit, offset)
}
