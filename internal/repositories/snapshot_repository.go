package repositories

import (
	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) repo.SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Create(snapshot *models.PortfolioSnapshot) error {
	return r.db.Create(snapshot).Error
}

func (r *SnapshotRepository) Latest(agentID string) (*models.PortfolioSnapshot, error) {
	var snap models.PortfolioSnapshot
	err := r.db.Where("agent_id = ?", agentID).Order("taken_at desc").First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *SnapshotRepository) ListByAgent(agentID string, limit int) ([]models.PortfolioSnapshot, error) {
	var snaps []models.PortfolioSnapshot
	err := r.db.Where("agent_id = ?", agentID).Order("taken_at desc").Limit(limit).Find(&snaps).Error
	return snaps, err
}
