package trading_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casualtrader/engine/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database, named after the
// running test, migrated with every trading-core table, so
// execution-primitive and cycle tests exercise real transactions rather
// than a mock (SQLite ignores the FOR UPDATE locking clause).
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.AgentConfig{},
		&models.AgentSession{},
		&models.Transaction{},
		&models.Holding{},
		&models.PortfolioSnapshot{},
		&models.MemoryEntry{},
	))
	return db
}
