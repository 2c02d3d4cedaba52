package trading_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
)

func TestRequirements_TradingModeEnablesEverything(t *testing.T) {
	req, err := trading.Requirements(models.ModeTrading)
	require.NoError(t, err)
	assert.True(t, req.IncludeTradeExecution)
	assert.True(t, req.IncludeWebSearch)
	assert.True(t, req.IncludeTechnicalAnalyst)
	assert.True(t, req.IncludeFundamentalAnalyst)
	assert.True(t, req.IncludeSentimentAnalyst)
	assert.True(t, req.IncludeRiskAnalyst)
}

func TestRequirements_RebalancingModeNeverTrades(t *testing.T) {
	req, err := trading.Requirements(models.ModeRebalancing)
	require.NoError(t, err)
	assert.False(t, req.IncludeTradeExecution, "rebalancing must never materialize the trade tool")
	assert.False(t, req.IncludeWebSearch)
	assert.True(t, req.IncludePortfolioTools)
	assert.True(t, req.IncludeTechnicalAnalyst)
}

func TestRequirements_UnknownModeIsAnError(t *testing.T) {
	_, err := trading.Requirements(models.ExecutionMode("BOGUS"))
	require.Error(t, err)
	assert.Equal(t, trading.ErrUnknownMode, trading.KindOf(err))
}

func TestRequirements_Idempotent(t *testing.T) {
	a, err := trading.Requirements(models.ModeTrading)
	require.NoError(t, err)
	b, err := trading.Requirements(models.ModeTrading)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIntersect_OverrideCanOnlySubtract(t *testing.T) {
	base, err := trading.Requirements(models.ModeTrading)
	require.NoError(t, err)

	// Overrides deny one granted flag and set another, already granted, flag to true.
	overrides := models.EnabledTools{
		"include_web_search":      false,
		"include_trade_execution": true,
	}
	got := trading.Intersect(base, overrides)

	assert.False(t, got.IncludeWebSearch, "override can subtract a granted flag")
	assert.True(t, got.IncludeTradeExecution, "override cannot add beyond the policy since the policy already grants it")
}

func TestIntersect_CannotGrantWhatPolicyDenies(t *testing.T) {
	base, err := trading.Requirements(models.ModeRebalancing)
	require.NoError(t, err)

	overrides := models.EnabledTools{"include_trade_execution": true}
	got := trading.Intersect(base, overrides)

	assert.False(t, got.IncludeTradeExecution, "AND semantics: override cannot grant a flag the mode policy denies")
}

func TestIntersect_AbsentKeyLeavesFlagUnchanged(t *testing.T) {
	base, err := trading.Requirements(models.ModeTrading)
	require.NoError(t, err)

	got := trading.Intersect(base, models.EnabledTools{})
	assert.Equal(t, base, got)
}

func TestCompare_NoDiffForEqualRequirements(t *testing.T) {
	a, _ := trading.Requirements(models.ModeTrading)
	b, _ := trading.Requirements(models.ModeTrading)
	assert.Empty(t, trading.Compare(a, b))
}

func TestCompare_ReportsEachDivergentFlag(t *testing.T) {
	a, _ := trading.Requirements(models.ModeTrading)
	b, _ := trading.Requirements(models.ModeRebalancing)

	diff := trading.Compare(a, b)
	assert.Contains(t, diff, "include_trade_execution")
	assert.Equal(t, [2]bool{true, false}, diff["include_trade_execution"])
	assert.Contains(t, diff, "include_web_search")
	assert.NotContains(t, diff, "include_portfolio_tools", "both modes grant this flag")
}
