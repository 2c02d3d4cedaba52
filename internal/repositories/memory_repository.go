package repositories

import (
	"time"

	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

type MemoryRepository struct {
	db *gorm.DB
}

func NewMemoryRepository(db *gorm.DB) repo.MemoryRepository {
	return &MemoryRepository{db: db}
}

func (r *MemoryRepository) Append(entry *models.MemoryEntry) error {
	return r.db.Create(entry).Error
}

func (r *MemoryRepository) ListByAgent(agentID string, since time.Time, maxEntries int) ([]models.MemoryEntry, error) {
	var entries []models.MemoryEntry
	err := r.db.Where("agent_id = ? AND taken_at >= ?", agentID, since).
		Order("taken_at desc").
		Limit(maxEntries).
		Find(&entries).Error
	return entries, err
}

func (r *MemoryRepository) DeleteOlderThan(agentID string, cutoff time.Time) error {
	return r.db.Where("agent_id = ? AND taken_at < ?", agentID, cutoff).Delete(&models.MemoryEntry{}).Error
}
