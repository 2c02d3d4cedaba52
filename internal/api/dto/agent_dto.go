package dto

import "github.com/shopspring/decimal"

type CreateAgentRequest struct {
	AgentID                string          `json:"agent_id" binding:"required"`
	DisplayName            string          `json:"display_name" binding:"required"`
	ModelIdentifier        string          `json:"model_identifier" binding:"required"`
	Instructions           string          `json:"instructions" binding:"required"`
	AdditionalInstructions string          `json:"additional_instructions"`
	InitialFunds           decimal.Decimal `json:"initial_funds" binding:"required"`
	MaxTurns               int             `json:"max_turns"`
	DefaultMode            string          `json:"default_mode"`
	RiskTolerance          string          `json:"risk_tolerance"`
	StrategyType           string          `json:"strategy_type"`
	PreferredSectors       []string        `json:"preferred_sectors"`
	ExcludedSymbols        []string        `json:"excluded_symbols"`
	MaxPositionSizePct     decimal.Decimal `json:"max_position_size_pct"`
	EnabledTools           map[string]bool `json:"enabled_tools"`
}

type UpdateAgentRequest struct {
	DisplayName            string          `json:"display_name"`
	ModelIdentifier        string          `json:"model_identifier"`
	Instructions           string          `json:"instructions"`
	AdditionalInstructions string          `json:"additional_instructions"`
	MaxTurns               int             `json:"max_turns"`
	DefaultMode            string          `json:"default_mode"`
	RiskTolerance          string          `json:"risk_tolerance"`
	StrategyType           string          `json:"strategy_type"`
	PreferredSectors       []string        `json:"preferred_sectors"`
	ExcludedSymbols        []string        `json:"excluded_symbols"`
	MaxPositionSizePct     decimal.Decimal `json:"max_position_size_pct"`
	EnabledTools           map[string]bool `json:"enabled_tools"`
}

type StartExecutionRequest struct {
	Mode string `json:"mode" binding:"required"`
}
