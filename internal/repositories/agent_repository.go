package repositories

import (
	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

type AgentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) repo.AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) Create(cfg *models.AgentConfig) error {
	return r.db.Create(cfg).Error
}

func (r *AgentRepository) Get(agentID string) (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	if err := r.db.Where("agent_id = ?", agentID).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *AgentRepository) List() ([]models.AgentConfig, error) {
	var configs []models.AgentConfig
	err := r.db.Order("created_at desc").Find(&configs).Error
	return configs, err
}

func (r *AgentRepository) Update(cfg *models.AgentConfig) error {
	return r.db.Save(cfg).Error
}

func (r *AgentRepository) Delete(agentID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("agent_id = ?", agentID).Delete(&models.MemoryEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("agent_id = ?", agentID).Delete(&models.PortfolioSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("agent_id = ?", agentID).Delete(&models.Holding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("agent_id = ?", agentID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("agent_id = ?", agentID).Delete(&models.AgentSession{}).Error; err != nil {
			return err
		}
		return tx.Where("agent_id = ?", agentID).Delete(&models.AgentConfig{}).Error
	})
}
