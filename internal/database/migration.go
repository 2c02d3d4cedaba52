package database

import (
	"gorm.io/gorm"

	"github.com/casualtrader/engine/internal/logger"
	"github.com/casualtrader/engine/internal/models"
)

// AutoMigrateAll creates/updates every table the engine owns. agent_id is
// a plain string column rather than a DB-level foreign key (§3), so
// ordering here is for readability, not correctness.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AgentConfig{},
		&models.AgentSession{},
		&models.Transaction{},
		&models.Holding{},
		&models.PortfolioSnapshot{},
		&models.MemoryEntry{},
		&logger.SystemLog{},
	)
}
