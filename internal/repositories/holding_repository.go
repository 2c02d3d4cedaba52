package repositories

import (
	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

type HoldingRepository struct {
	db *gorm.DB
}

func NewHoldingRepository(db *gorm.DB) repo.HoldingRepository {
	return &HoldingRepository{db: db}
}

func (r *HoldingRepository) Get(agentID, ticker string) (*models.Holding, error) {
	var h models.Holding
	err := r.db.Where("agent_id = ? AND ticker = ?", agentID, ticker).First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HoldingRepository) ListByAgent(agentID string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := r.db.Where("agent_id = ?", agentID).Find(&holdings).Error
	return holdings, err
}
