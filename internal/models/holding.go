package models

import "github.com/shopspring/decimal"

// Holding is the current position for (agent_id, ticker). The row is
// deleted once Quantity reaches zero — see
// internal/trading.ExecuteTradeAtomic step 4.
type Holding struct {
	AgentID     string          `gorm:"column:agent_id;size:64;primaryKey" json:"agent_id"`
	Ticker      string          `gorm:"column:ticker;size:20;primaryKey" json:"ticker"`
	Quantity    int64           `gorm:"column:quantity;not null" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"column:average_cost;type:decimal(18,4);not null" json:"average_cost"`
}

func (Holding) TableName() string {
	return "holdings"
}
