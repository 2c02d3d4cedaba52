package trading

import (
	"fmt"

	"github.com/casualtrader/engine/internal/models"
)

// ToolRequirements is an immutable record of which tools, sub-analysts
// and connectors a cycle should load. Field names mirror the flags table
// in §4.1 so Compare's diff output reads the same as the spec.
type ToolRequirements struct {
	IncludeWebSearch           bool
	IncludeCodeInterpreter     bool
	IncludeTradeExecution      bool
	IncludePortfolioTools      bool
	IncludeTechnicalAnalyst    bool
	IncludeFundamentalAnalyst  bool
	IncludeSentimentAnalyst    bool
	IncludeRiskAnalyst         bool
	IncludeMemoryConnector     bool
	IncludeMarketDataConnector bool
	IncludeWebConnector        bool
}

var policyTable = map[models.ExecutionMode]ToolRequirements{
	models.ModeTrading: {
		IncludeWebSearch:           true,
		IncludeCodeInterpreter:     true,
		IncludeTradeExecution:      true,
		IncludePortfolioTools:      true,
		IncludeTechnicalAnalyst:    true,
		IncludeFundamentalAnalyst:  true,
		IncludeSentimentAnalyst:    true,
		IncludeRiskAnalyst:         true,
		IncludeMemoryConnector:     true,
		IncludeMarketDataConnector: true,
		IncludeWebConnector:        true,
	},
	models.ModeRebalancing: {
		IncludeWebSearch:           false,
		IncludeCodeInterpreter:     true,
		IncludeTradeExecution:      false,
		IncludePortfolioTools:      true,
		IncludeTechnicalAnalyst:    true,
		IncludeFundamentalAnalyst:  false,
		IncludeSentimentAnalyst:    false,
		IncludeRiskAnalyst:         true,
		IncludeMemoryConnector:     true,
		IncludeMarketDataConnector: true,
		IncludeWebConnector:        false,
	},
}

// Requirements is the pure function mode → ToolRequirements demanded by
// §4.1. It is total over the two defined modes and has no observable side
// effects (P10): same mode always yields an equal record.
func Requirements(mode models.ExecutionMode) (ToolRequirements, error) {
	req, ok := policyTable[mode]
	if !ok {
		return ToolRequirements{}, NewError(ErrUnknownMode, fmt.Sprintf("no tool policy for mode %q", mode), nil)
	}
	return req, nil
}

// Intersect applies the user-level AgentConfig.enabled_tools override on
// top of the mode policy using AND semantics only — a user override can
// subtract a flag the policy grants but can never add one the policy
// denies.
func Intersect(req ToolRequirements, overrides models.EnabledTools) ToolRequirements {
	and := func(flag bool, key string) bool {
		if allowed, present := overrides[key]; present {
			return flag && allowed
		}
		return flag
	}
	return ToolRequirements{
		IncludeWebSearch:           and(req.IncludeWebSearch, "include_web_search"),
		IncludeCodeInterpreter:     and(req.IncludeCodeInterpreter, "include_code_interpreter"),
		IncludeTradeExecution:      and(req.IncludeTradeExecution, "include_trade_execution"),
		IncludePortfolioTools:      and(req.IncludePortfolioTools, "include_portfolio_tools"),
		IncludeTechnicalAnalyst:    and(req.IncludeTechnicalAnalyst, "include_technical_analyst"),
		IncludeFundamentalAnalyst:  and(req.IncludeFundamentalAnalyst, "include_fundamental_analyst"),
		IncludeSentimentAnalyst:    and(req.IncludeSentimentAnalyst, "include_sentiment_analyst"),
		IncludeRiskAnalyst:         and(req.IncludeRiskAnalyst, "include_risk_analyst"),
		IncludeMemoryConnector:     and(req.IncludeMemoryConnector, "include_memory_connector"),
		IncludeMarketDataConnector: and(req.IncludeMarketDataConnector, "include_market_data_connector"),
		IncludeWebConnector:        and(req.IncludeWebConnector, "include_web_connector"),
	}
}

// Compare returns the symmetric difference of flags between a and b,
// keyed by flag name, for debuggability — required by §4.1.
func Compare(a, b ToolRequirements) map[string][2]bool {
	diff := map[string][2]bool{}
	add := func(name string, av, bv bool) {
		if av != bv {
			diff[name] = [2]bool{av, bv}
		}
	}
	add("include_web_search", a.IncludeWebSearch, b.IncludeWebSearch)
	add("include_code_interpreter", a.IncludeCodeInterpreter, b.IncludeCodeInterpreter)
	add("include_trade_execution", a.IncludeTradeExecution, b.IncludeTradeExecution)
	add("include_portfolio_tools", a.IncludePortfolioTools, b.IncludePortfolioTools)
	add("include_technical_analyst", a.IncludeTechnicalAnalyst, b.IncludeTechnicalAnalyst)
	add("include_fundamental_analyst", a.IncludeFundamentalAnalyst, b.IncludeFundamentalAnalyst)
	add("include_sentiment_analyst", a.IncludeSentimentAnalyst, b.IncludeSentimentAnalyst)
	add("include_risk_analyst", a.IncludeRiskAnalyst, b.IncludeRiskAnalyst)
	add("include_memory_connector", a.IncludeMemoryConnector, b.IncludeMemoryConnector)
	add("include_market_data_connector", a.IncludeMarketDataConnector, b.IncludeMarketDataConnector)
	add("include_web_connector", a.IncludeWebConnector, b.IncludeWebConnector)
	return diff
}
