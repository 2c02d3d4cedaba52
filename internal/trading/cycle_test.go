package trading_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/llm"
	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/repositories"
	"github.com/casualtrader/engine/internal/trading"
	"github.com/casualtrader/engine/internal/trading/connectors"
	"github.com/casualtrader/engine/internal/trading/market"
	"github.com/casualtrader/engine/internal/trading/memory"
)

func buyArgs(t *testing.T, ticker string, qty int64) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"ticker": ticker, "action": "BUY", "quantity": qty, "decision_reason": "scripted buy",
	})
	require.NoError(t, err)
	return raw
}

// fakeConnectors is a scripted connectors.Gateway test double, the same
// role llm.ScriptedProvider and market.StubGateway play for the LLM and
// market capability boundaries.
type fakeConnectors struct {
	searchCalls int
	lastQuery   string
}

func (f *fakeConnectors) Search(_ context.Context, query string) ([]connectors.SearchResult, error) {
	f.searchCalls++
	f.lastQuery = query
	return []connectors.SearchResult{{Title: "result", URL: "https://example.test", Snippet: "snippet"}}, nil
}

func (f *fakeConnectors) FetchPage(_ context.Context, _ string) (string, error) { return "", nil }

func (f *fakeConnectors) RunSnippet(_ context.Context, _, _ string) (string, error) { return "", nil }

// recordingProvider captures the last system prompt it was asked to
// complete, so a test can assert on what composeInstructions produced
// without reaching into its internals.
type recordingProvider struct {
	responses  []agentcore.CompletionResponse
	calls      int
	lastSystem string
}

func (p *recordingProvider) Name() string        { return "recording" }
func (p *recordingProvider) SupportsTools() bool { return true }

func (p *recordingProvider) Complete(_ context.Context, req *agentcore.CompletionRequest) (*agentcore.CompletionResponse, error) {
	p.lastSystem = req.System
	if p.calls >= len(p.responses) {
		return &agentcore.CompletionResponse{Content: "no further scripted responses", Stopped: true}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return &resp, nil
}

func TestCycleRunner_TradingModeHappyPathExecutesTrade(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))

	agentRepo := repositories.NewAgentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	memoryRepo := repositories.NewMemoryRepository(db)
	memoryStore := memory.NewStore(memoryRepo, memory.DefaultRetention())

	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(500), Fee: decimal.Zero}},
	}
	gatewayFor := func() market.Gateway { return gw }

	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{ToolCalls: []agentcore.ToolCall{{ID: "1", Name: "execute_trade_atomic", Arguments: buyArgs(t, "2330", 1000)}}},
		{Content: "bought 2330, done for this cycle"},
	}}

	registry := trading.NewRegistry(provider, "scripted-model", gatewayFor)
	runner := trading.NewCycleRunner(db, agentRepo, sessionRepo, holdingRepo, memoryStore, registry, provider, gatewayFor, nil, nil)

	sessionID := uuid.New()
	outcome, err := runner.Run(context.Background(), sessionID, "agent-1", models.ModeTrading)
	require.NoError(t, err)
	assert.Equal(t, sessionID, outcome.SessionID)
	assert.Equal(t, models.SessionCompleted, outcome.Status)
	assert.Equal(t, 2, outcome.TurnsUsed)

	var txCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("agent_id = ?", "agent-1").Count(&txCount).Error)
	assert.Equal(t, int64(1), txCount, "the happy path must have placed exactly one trade")

	var holding models.Holding
	require.NoError(t, db.Where("agent_id = ? AND ticker = ?", "agent-1", "2330").First(&holding).Error)
	assert.Equal(t, int64(1000), holding.Quantity)
}

func TestCycleRunner_TradingModeRegistersWebSearchTool(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))

	agentRepo := repositories.NewAgentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	memoryRepo := repositories.NewMemoryRepository(db)
	memoryStore := memory.NewStore(memoryRepo, memory.DefaultRetention())

	gw := market.NewStubGateway()
	gatewayFor := func() market.Gateway { return gw }
	fakeConn := &fakeConnectors{}

	searchArgs, err := json.Marshal(map[string]interface{}{"query": "2330 earnings"})
	require.NoError(t, err)
	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{ToolCalls: []agentcore.ToolCall{{ID: "1", Name: "web_search", Arguments: searchArgs}}},
		{Content: "reviewed search results, no action needed"},
	}}

	registry := trading.NewRegistry(provider, "scripted-model", gatewayFor)
	runner := trading.NewCycleRunner(db, agentRepo, sessionRepo, holdingRepo, memoryStore, registry, provider, gatewayFor, fakeConn, nil)

	outcome, err := runner.Run(context.Background(), uuid.New(), "agent-1", models.ModeTrading)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, outcome.Status)
	assert.Equal(t, 1, fakeConn.searchCalls, "TRADING mode must load the web_search tool and the agent's call must reach the connector")
	assert.Equal(t, "2330 earnings", fakeConn.lastQuery)
}

func TestCycleRunner_DisablingMemoryConnectorOmitsHistoryFromInstructions(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))

	agentRepo := repositories.NewAgentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	memoryRepo := repositories.NewMemoryRepository(db)
	memoryStore := memory.NewStore(memoryRepo, memory.DefaultRetention())
	require.NoError(t, memoryStore.Append(&models.MemoryEntry{
		AgentID: "agent-1", TakenAt: time.Now(), Mode: models.ModeRebalancing,
		DecisionSummary: "prior decision that must not leak into instructions", OutcomeSummary: "completed",
	}))

	require.NoError(t, db.Model(&models.AgentConfig{}).Where("agent_id = ?", "agent-1").
		Update("enabled_tools", models.EnabledTools{"include_memory_connector": false}).Error)

	gw := market.NewStubGateway()
	gatewayFor := func() market.Gateway { return gw }

	provider := &recordingProvider{
		responses: []agentcore.CompletionResponse{{Content: "nothing to do"}},
	}

	registry := trading.NewRegistry(provider, "scripted-model", gatewayFor)
	runner := trading.NewCycleRunner(db, agentRepo, sessionRepo, holdingRepo, memoryStore, registry, provider, gatewayFor, nil, nil)

	_, err := runner.Run(context.Background(), uuid.New(), "agent-1", models.ModeRebalancing)
	require.NoError(t, err)
	assert.NotContains(t, provider.lastSystem, "prior decision that must not leak into instructions")
}

func TestCycleRunner_RebalancingModeNeverTrades(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))
	require.NoError(t, db.Create(&models.Holding{AgentID: "agent-1", Ticker: "2330", Quantity: 2000, AverageCost: decimal.NewFromInt(480)}).Error)

	agentRepo := repositories.NewAgentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	memoryRepo := repositories.NewMemoryRepository(db)
	memoryStore := memory.NewStore(memoryRepo, memory.DefaultRetention())

	gw := market.NewStubGateway()
	gatewayFor := func() market.Gateway { return gw }

	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{Content: "holdings look balanced, no action needed this cycle"},
	}}

	registry := trading.NewRegistry(provider, "scripted-model", gatewayFor)
	runner := trading.NewCycleRunner(db, agentRepo, sessionRepo, holdingRepo, memoryStore, registry, provider, gatewayFor, nil, nil)

	outcome, err := runner.Run(context.Background(), uuid.New(), "agent-1", models.ModeRebalancing)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, outcome.Status)
	assert.Equal(t, 1, outcome.TurnsUsed)

	var txCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("agent_id = ?", "agent-1").Count(&txCount).Error)
	assert.Zero(t, txCount, "REBALANCING must never materialize the trade tool, so no transaction can be recorded")

	var holding models.Holding
	require.NoError(t, db.Where("agent_id = ? AND ticker = ?", "agent-1", "2330").First(&holding).Error)
	assert.Equal(t, int64(2000), holding.Quantity, "position must be untouched")
}

func TestCycleRunner_PersistsSessionAndMemoryEntry(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))

	agentRepo := repositories.NewAgentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	memoryRepo := repositories.NewMemoryRepository(db)
	memoryStore := memory.NewStore(memoryRepo, memory.DefaultRetention())

	gw := market.NewStubGateway()
	gatewayFor := func() market.Gateway { return gw }
	provider := &llm.ScriptedProvider{Responses: []agentcore.CompletionResponse{
		{Content: "nothing to do"},
	}}
	registry := trading.NewRegistry(provider, "scripted-model", gatewayFor)
	runner := trading.NewCycleRunner(db, agentRepo, sessionRepo, holdingRepo, memoryStore, registry, provider, gatewayFor, nil, nil)

	outcome, err := runner.Run(context.Background(), uuid.New(), "agent-1", models.ModeRebalancing)
	require.NoError(t, err)

	var session models.AgentSession
	require.NoError(t, db.Where("session_id = ?", outcome.SessionID).First(&session).Error)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)

	entries, err := memoryStore.Load("agent-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nothing to do", entries[0].DecisionSummary)
}
