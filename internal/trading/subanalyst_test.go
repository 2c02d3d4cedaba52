package trading_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/llm"
	"github.com/casualtrader/engine/internal/trading"
	"github.com/casualtrader/engine/internal/trading/market"
)

func TestRegistry_MaterializeReturnsOneToolPerEnabledAnalyst(t *testing.T) {
	provider := &llm.ScriptedProvider{}
	gw := market.NewStubGateway()
	registry := trading.NewRegistry(provider, "scripted-model", func() market.Gateway { return gw })

	tools, err := registry.Materialize(trading.ToolRequirements{
		IncludeTechnicalAnalyst: true,
		IncludeRiskAnalyst:      true,
	})
	require.NoError(t, err)
	require.Len(t, tools, 2)

	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Name()] = true
	}
	assert.True(t, names["technical_analyst"])
	assert.True(t, names["risk_analyst"])
}

func TestRegistry_MaterializeEmptyWhenNoAnalystEnabled(t *testing.T) {
	provider := &llm.ScriptedProvider{}
	registry := trading.NewRegistry(provider, "scripted-model", nil)

	tools, err := registry.Materialize(trading.ToolRequirements{})
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestRegistry_AnalystReportsFindingFromScriptedProvider(t *testing.T) {
	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{Content: "trend is up, momentum strong"},
	}}
	registry := trading.NewRegistry(provider, "scripted-model", nil)

	tools, err := registry.Materialize(trading.ToolRequirements{IncludeTechnicalAnalyst: true})
	require.NoError(t, err)
	require.Len(t, tools, 1)

	args, err := json.Marshal(map[string]string{"subject": "2330", "context": "uptrend"})
	require.NoError(t, err)

	result, err := tools[0].Execute(context.Background(), args)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var finding trading.Finding
	require.NoError(t, json.Unmarshal([]byte(result.Content), &finding))
	assert.Equal(t, trading.AnalystTechnical, finding.Analyst)
	assert.Equal(t, "2330", finding.Subject)
	assert.Equal(t, "trend is up, momentum strong", finding.Summary)
}

func TestRegistry_AnalystRuntimeCannotReachTradeTool(t *testing.T) {
	// The sub-analyst's nested Runtime is constructed fresh per call and
	// only ever gets the price_indicators tool (technical) registered on
	// it — execute_trade_atomic is never wired into it, so an analyst has
	// no path to place a trade regardless of what the LLM asks for.
	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{ToolCalls: []agentcore.ToolCall{{ID: "1", Name: "execute_trade_atomic", Arguments: json.RawMessage(`{}`)}}},
		{Content: "gave up trying to trade"},
	}}
	gw := market.NewStubGateway()
	registry := trading.NewRegistry(provider, "scripted-model", func() market.Gateway { return gw })

	tools, err := registry.Materialize(trading.ToolRequirements{IncludeTechnicalAnalyst: true})
	require.NoError(t, err)

	args, _ := json.Marshal(map[string]string{"subject": "2330"})
	result, err := tools[0].Execute(context.Background(), args)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var finding trading.Finding
	require.NoError(t, json.Unmarshal([]byte(result.Content), &finding))
	assert.Equal(t, "gave up trying to trade", finding.Summary)
	assert.Equal(t, 2, provider.CallCount())
}

func TestRegistry_TechnicalAnalystCanComputeIndicatorsFromHistory(t *testing.T) {
	gw := market.NewStubGateway()
	history := make([]decimal.Decimal, 0, 25)
	base := 100.0
	for i := 0; i < 25; i++ {
		base += 1.0
		history = append(history, decimal.NewFromFloat(base))
	}
	gw.Histories["2330"] = history

	indicatorArgs, err := json.Marshal(map[string]interface{}{"ticker": "2330", "lookback": 25})
	require.NoError(t, err)

	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{ToolCalls: []agentcore.ToolCall{{ID: "1", Name: "price_indicators", Arguments: indicatorArgs}}},
		{Content: "trend is steadily rising, no reversal signal"},
	}}
	registry := trading.NewRegistry(provider, "scripted-model", func() market.Gateway { return gw })

	tools, err := registry.Materialize(trading.ToolRequirements{IncludeTechnicalAnalyst: true})
	require.NoError(t, err)

	args, _ := json.Marshal(map[string]string{"subject": "2330"})
	result, err := tools[0].Execute(context.Background(), args)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.True(t, gw.Released, "the gateway borrowed for indicator computation must be released after the analyst call")

	var finding trading.Finding
	require.NoError(t, json.Unmarshal([]byte(result.Content), &finding))
	assert.Equal(t, "trend is steadily rising, no reversal signal", finding.Summary)
}
