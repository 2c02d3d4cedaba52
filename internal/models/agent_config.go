package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EnabledTools is the user-level override map from tool flag name to
// whether the user allows it. Intersected (AND) with the mode policy by
// internal/trading.Intersect — it can only subtract, never add.
type EnabledTools map[string]bool

func (e EnabledTools) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *EnabledTools) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("models: type assertion to []byte failed for EnabledTools")
	}
	return json.Unmarshal(bytes, e)
}

// InvestmentPreferences narrows the strategy space the agent is allowed
// to operate within. RiskTolerance, StrategyType, MaxPositionSizePct and
// ExcludedSymbols are surfaced to the LLM as part of composed
// instructions; the Trade Execution Primitive enforces only
// MaxPositionSizePct, on BUY orders. PreferredSectors is stored and
// returned by the API but read by neither.
type InvestmentPreferences struct {
	RiskTolerance      RiskTolerance   `gorm:"column:risk_tolerance;size:10;default:medium" json:"risk_tolerance"`
	StrategyType       string          `gorm:"column:strategy_type;size:100" json:"strategy_type"`
	PreferredSectors   StringSet       `gorm:"column:preferred_sectors;type:text" json:"preferred_sectors"`
	ExcludedSymbols    StringSet       `gorm:"column:excluded_symbols;type:text" json:"excluded_symbols"`
	MaxPositionSizePct decimal.Decimal `gorm:"column:max_position_size_pct;type:decimal(5,2);default:100" json:"max_position_size_pct"`
}

// AgentConfig is the durable identity of a simulated trader. agent_id and
// initial_funds are immutable after creation; other fields are editable
// only while the agent is not actively running (enforced by the service
// layer, not by the model).
type AgentConfig struct {
	AgentID                string                 `gorm:"column:agent_id;primaryKey;size:64" json:"agent_id"`
	DisplayName            string                 `gorm:"column:display_name;size:200;not null" json:"display_name"`
	ModelIdentifier        string                 `gorm:"column:model_identifier;size:100;not null" json:"model_identifier"`
	Instructions           string                 `gorm:"column:instructions;type:text;not null" json:"instructions"`
	AdditionalInstructions string                 `gorm:"column:additional_instructions;type:text" json:"additional_instructions,omitempty"`
	InitialFunds           decimal.Decimal        `gorm:"column:initial_funds;type:decimal(18,2);not null" json:"initial_funds"`
	CashBalance            decimal.Decimal        `gorm:"column:cash_balance;type:decimal(18,2);not null" json:"cash_balance"`
	MaxTurns               int                    `gorm:"column:max_turns;not null;default:8" json:"max_turns"`
	DefaultMode            ExecutionMode          `gorm:"column:default_mode;size:20;not null;default:TRADING" json:"default_mode"`
	InvestmentPreferences  InvestmentPreferences  `gorm:"embedded" json:"investment_preferences"`
	EnabledTools           EnabledTools           `gorm:"column:enabled_tools;type:jsonb" json:"enabled_tools"`
	CreatedAt              time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (AgentConfig) TableName() string {
	return "agent_configs"
}
