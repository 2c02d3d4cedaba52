package repositories

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) repo.TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) ListByAgent(agentID string, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("agent_id = ?", agentID).
		Order("executed_at desc").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) ListBySession(sessionID uuid.UUID) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.Where("session_id = ?", sessionID).Order("executed_at asc").Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) FindByDedupKey(agentID, dedupKey string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.Where("agent_id = ? AND dedup_key = ?", agentID, dedupKey).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepository) SumNetCashDelta(agentID string) (decimal.Decimal, error) {
	var sum *string
	row := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(net_cash_delta), 0)").
		Where("agent_id = ?", agentID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if sum == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*sum)
}
