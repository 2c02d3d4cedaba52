package repository

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casualtrader/engine/internal/models"
)

// TransactionRepository reads Transaction rows. Writes happen only inside
// internal/trading.ExecuteTradeAtomic's single DB transaction, never here.
type TransactionRepository interface {
	ListByAgent(agentID string, limit, offset int) ([]models.Transaction, error)
	ListBySession(sessionID uuid.UUID) ([]models.Transaction, error)
	FindByDedupKey(agentID, dedupKey string) (*models.Transaction, error)
	// SumNetCashDelta reconstructs the cash balance contribution from
	// committed transactions alone (L3, cash ledger reconstructability).
	SumNetCashDelta(agentID string) (decimal.Decimal, error)
}
