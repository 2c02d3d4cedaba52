package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is a single executed buy/sell. net_cash_delta is negative
// gross+fee for BUY, positive gross-fee for SELL — enforced by
// internal/trading.ExecuteTradeAtomic, not recomputed anywhere else.
type Transaction struct {
	TransactionID  uuid.UUID       `gorm:"column:transaction_id;type:uuid;primaryKey" json:"transaction_id"`
	AgentID        string          `gorm:"column:agent_id;size:64;not null;index:idx_transactions_agent_time,priority:1" json:"agent_id"`
	SessionID      uuid.UUID       `gorm:"column:session_id;type:uuid;not null;index" json:"session_id"`
	Ticker         string          `gorm:"column:ticker;size:20;not null" json:"ticker"`
	Action         TradeAction     `gorm:"column:action;size:10;not null" json:"action"`
	Quantity       int64           `gorm:"column:quantity;not null" json:"quantity"`
	ExecutedPrice  decimal.Decimal `gorm:"column:executed_price;type:decimal(18,4);not null" json:"executed_price"`
	GrossAmount    decimal.Decimal `gorm:"column:gross_amount;type:decimal(18,2);not null" json:"gross_amount"`
	Fee            decimal.Decimal `gorm:"column:fee;type:decimal(18,2);not null" json:"fee"`
	NetCashDelta   decimal.Decimal `gorm:"column:net_cash_delta;type:decimal(18,2);not null" json:"net_cash_delta"`
	ExecutedAt     time.Time       `gorm:"column:executed_at;not null;index:idx_transactions_agent_time,priority:2" json:"executed_at"`
	DecisionReason string          `gorm:"column:decision_reason;type:text" json:"decision_reason"`
	DedupKey       *string         `gorm:"column:dedup_key;size:128;uniqueIndex:idx_transactions_dedup" json:"dedup_key,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
