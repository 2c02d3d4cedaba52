package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is a point-in-time valuation of an agent's book.
// Written after every committed trade and on a periodic scheduler tick
// (see internal/trading.SnapshotScheduler) so idle agents still carry a
// fresh valuation.
type PortfolioSnapshot struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AgentID        string          `gorm:"column:agent_id;size:64;not null;index:idx_snapshots_agent_time,priority:1" json:"agent_id"`
	TakenAt        time.Time       `gorm:"column:taken_at;not null;index:idx_snapshots_agent_time,priority:2" json:"taken_at"`
	Cash           decimal.Decimal `gorm:"column:cash;type:decimal(18,2);not null" json:"cash"`
	PositionsValue decimal.Decimal `gorm:"column:positions_value;type:decimal(18,2);not null" json:"positions_value"`
	TotalValue     decimal.Decimal `gorm:"column:total_value;type:decimal(18,2);not null" json:"total_value"`
	UnrealizedPnL  decimal.Decimal `gorm:"column:unrealized_pnl;type:decimal(18,2);not null" json:"unrealized_pnl"`
}

func (PortfolioSnapshot) TableName() string {
	return "portfolio_snapshots"
}
