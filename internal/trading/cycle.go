// Package trading implements the Taiwan-market simulation core: the tool
// configuration policy, the sub-analyst registry, the trade execution
// primitive, and the per-invocation cycle runner that ties them together.
package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/eventbus"
	repo "github.com/casualtrader/engine/internal/interfaces/repository"
	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/telemetry"
	"github.com/casualtrader/engine/internal/trading/connectors"
	"github.com/casualtrader/engine/internal/trading/market"
	"github.com/casualtrader/engine/internal/trading/memory"
)

const cycleWallTime = 5 * time.Minute

// CycleRunner executes one bounded agent invocation end to end (§4.6):
// load config, load memory, compute the tool inventory for the
// requested mode, run the LLM loop, persist the outcome, and release
// every scoped resource regardless of how the cycle ends.
type CycleRunner struct {
	db          *gorm.DB
	agents      repo.AgentRepository
	sessions    repo.SessionRepository
	holdings    repo.HoldingRepository
	memoryStore *memory.Store
	registry    *Registry
	provider    agentcore.LLMProvider
	gatewayFor  func() market.Gateway
	connectors  connectors.Gateway
	bus         eventbus.EventBusInterface
}

func NewCycleRunner(
	db *gorm.DB,
	agents repo.AgentRepository,
	sessions repo.SessionRepository,
	holdings repo.HoldingRepository,
	memoryStore *memory.Store,
	registry *Registry,
	provider agentcore.LLMProvider,
	gatewayFor func() market.Gateway,
	connectorGateway connectors.Gateway,
	bus eventbus.EventBusInterface,
) *CycleRunner {
	return &CycleRunner{
		db:          db,
		agents:      agents,
		sessions:    sessions,
		holdings:    holdings,
		memoryStore: memoryStore,
		registry:    registry,
		provider:    provider,
		gatewayFor:  gatewayFor,
		connectors:  connectorGateway,
		bus:         bus,
	}
}

// CycleOutcome summarizes one completed invocation for the Lifecycle
// Manager and the API layer.
type CycleOutcome struct {
	SessionID uuid.UUID
	Status    models.SessionStatus
	ErrorKind string
	Summary   string
	TurnsUsed int
}

// Run executes the ten steps of §4.6. ctx's cancellation is the
// Lifecycle Manager's stop() signal; Run treats it as a normal exit
// path (status=cancelled), not an error. sessionID is minted by the
// caller (the Lifecycle Manager, or the test harness) rather than here,
// so the id a client was handed back at start time is the same id the
// persisted AgentSession/Transaction rows carry.
func (r *CycleRunner) Run(ctx context.Context, sessionID uuid.UUID, agentID string, mode models.ExecutionMode) (*CycleOutcome, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "trading.CycleRunner.Run")
	defer span.End()
	span.SetAttributes(attribute.String("agent_id", agentID), attribute.String("mode", string(mode)))

	cfg, err := r.agents.Get(agentID)
	if err != nil {
		return nil, NewError(ErrAgentNotFound, "agent config not found", err)
	}

	session := &models.AgentSession{
		SessionID: sessionID,
		AgentID:   agentID,
		Mode:      mode,
		StartedAt: time.Now(),
		Status:    models.SessionRunning,
	}
	if err := r.sessions.Create(session); err != nil {
		return nil, NewError(ErrInternal, "failed to create session", err)
	}
	if r.bus != nil {
		_ = r.bus.Publish(eventbus.EventTypeSessionStarted, eventbus.NewSessionStartedEvent(agentID, session.SessionID.String(), string(mode)))
	}

	gw := r.gatewayFor()
	defer gw.Release()

	outcome, runErr := r.runCycle(ctx, cfg, session, gw)

	session.EndedAt = ptrTime(time.Now())
	session.Status = outcome.Status
	session.TurnsUsed = outcome.TurnsUsed
	session.Summary = outcome.Summary
	if outcome.ErrorKind != "" {
		ek := outcome.ErrorKind
		session.ErrorKind = &ek
	}
	if err := r.sessions.Update(session); err != nil {
		return nil, NewError(ErrInternal, "failed to persist session outcome", err)
	}

	if r.bus != nil {
		_ = r.bus.Publish(eventbus.EventTypeSessionEnded, eventbus.NewSessionEndedEvent(agentID, session.SessionID.String(), string(outcome.Status), outcome.ErrorKind))
		if runErr != nil {
			msg := runErr.Error()
			if te, ok := runErr.(*TradingError); ok {
				msg = te.Message
			}
			_ = r.bus.Publish(eventbus.EventTypeError, eventbus.NewErrorEvent(agentID, string(KindOf(runErr)), msg))
		}
	}

	return outcome, nil
}

func (r *CycleRunner) runCycle(ctx context.Context, cfg *models.AgentConfig, session *models.AgentSession, gw market.Gateway) (*CycleOutcome, error) {
	outcome := &CycleOutcome{SessionID: session.SessionID}

	entries, err := r.memoryStore.Load(cfg.AgentID)
	if err != nil {
		return failOutcome(outcome, ErrInternal, "failed to load memory", err)
	}

	req, err := Requirements(session.Mode)
	if err != nil {
		return failOutcome(outcome, KindOf(err), "failed to resolve tool requirements", err)
	}
	req = Intersect(req, cfg.EnabledTools)

	runtime := agentcore.NewRuntime(r.provider, cfg.MaxTurns, cycleWallTime)

	if req.IncludeTechnicalAnalyst || req.IncludeFundamentalAnalyst || req.IncludeSentimentAnalyst || req.IncludeRiskAnalyst {
		analystTools, err := r.registry.Materialize(req)
		if err != nil {
			return failOutcome(outcome, ErrToolMaterialization, "failed to materialize sub-analysts", err)
		}
		for _, t := range analystTools {
			runtime.RegisterTool(t)
		}
	}

	if req.IncludeMarketDataConnector {
		runtime.RegisterTool(newQuoteTool(gw))
	}
	if req.IncludePortfolioTools {
		runtime.RegisterTool(newPortfolioTool(r.holdings, cfg))
	}
	if req.IncludeTradeExecution {
		runtime.RegisterTool(NewTradeExecutionTool(r.db, gw, r.bus, cfg.AgentID, session.SessionID))
	}
	if req.IncludeWebSearch && r.connectors != nil {
		runtime.RegisterTool(newWebSearchTool(r.connectors))
	}
	if req.IncludeWebConnector && r.connectors != nil {
		runtime.RegisterTool(newWebConnectorTool(r.connectors))
	}
	if req.IncludeCodeInterpreter && r.connectors != nil {
		runtime.RegisterTool(newCodeInterpreterTool(r.connectors))
	}

	if !req.IncludeMemoryConnector {
		entries = nil
	}
	instructions := composeInstructions(cfg, session.Mode, entries)
	userPrompt := modePrompt(session.Mode)

	result, err := runtime.Run(ctx, cfg.ModelIdentifier, instructions, userPrompt)
	if err != nil {
		if ctx.Err() == context.Canceled {
			outcome.Status = models.SessionCancelled
			outcome.ErrorKind = string(ErrCancelled)
			outcome.Summary = "cycle cancelled"
			return outcome, nil
		}
		return failOutcome(outcome, ErrInternal, "agent run failed", err)
	}

	outcome.TurnsUsed = result.Turns
	switch {
	case result.Cancelled:
		outcome.Status = models.SessionCancelled
		outcome.ErrorKind = string(ErrCancelled)
	case result.TimedOut:
		outcome.Status = models.SessionFailed
		outcome.ErrorKind = string(ErrTimeoutExpired)
	default:
		outcome.Status = models.SessionCompleted
	}
	outcome.Summary = result.FinalAnswer

	entry := &models.MemoryEntry{
		AgentID:         cfg.AgentID,
		TakenAt:         time.Now(),
		Mode:            session.Mode,
		AnalysisSummary: summarizeToolCalls(result.ToolCalls),
		DecisionSummary: result.FinalAnswer,
		OutcomeSummary:  string(outcome.Status),
		NextStepHint:    "",
	}
	if err := r.memoryStore.Append(entry); err != nil {
		return outcome, NewError(ErrInternal, "failed to append memory entry", err)
	}

	return outcome, nil
}

func failOutcome(outcome *CycleOutcome, kind ErrorKind, message string, err error) (*CycleOutcome, error) {
	outcome.Status = models.SessionFailed
	outcome.ErrorKind = string(kind)
	outcome.Summary = message
	return outcome, NewError(kind, message, err)
}

func ptrTime(t time.Time) *time.Time { return &t }

func summarizeToolCalls(calls []agentcore.ExecutedToolCall) string {
	if len(calls) == 0 {
		return "no tool calls"
	}
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name)
	}
	return "tools called: " + strings.Join(names, ", ")
}

// composeInstructions builds the system prompt: base + user-supplied
// additional instructions + investment preferences + a rendered memory
// timeline, per §4.6.
func composeInstructions(cfg *models.AgentConfig, mode models.ExecutionMode, entries []models.MemoryEntry) string {
	var b strings.Builder
	b.WriteString(cfg.Instructions)
	if cfg.AdditionalInstructions != "" {
		b.WriteString("\n\n")
		b.WriteString(cfg.AdditionalInstructions)
	}
	b.WriteString(fmt.Sprintf("\n\nInvestment preferences: risk tolerance %s, strategy %s, max position size %s%% of portfolio.",
		cfg.InvestmentPreferences.RiskTolerance, cfg.InvestmentPreferences.StrategyType, cfg.InvestmentPreferences.MaxPositionSizePct.String()))
	if len(cfg.InvestmentPreferences.ExcludedSymbols) > 0 {
		b.WriteString(" Excluded symbols: " + strings.Join(cfg.InvestmentPreferences.ExcludedSymbols, ", ") + ".")
	}

	if len(entries) > 0 {
		b.WriteString("\n\nRecent cycle history:\n")
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("- [%s] decision: %s; outcome: %s\n", e.TakenAt.Format(time.RFC3339), e.DecisionSummary, e.OutcomeSummary))
		}
	}

	b.WriteString(fmt.Sprintf("\n\nCurrent cash balance: %s. Mode: %s.", cfg.CashBalance.String(), mode))
	return b.String()
}

func modePrompt(mode models.ExecutionMode) string {
	switch mode {
	case models.ModeTrading:
		return "Analyze the current market and your portfolio, then decide whether to buy, sell, or hold. Use the available analyst and market tools before executing any trade."
	case models.ModeRebalancing:
		return "Review your current holdings against your investment preferences and risk limits. Recommend and document any rebalancing needed, but do not place any trades this cycle."
	default:
		return "Review the current situation and report your findings."
	}
}

func newPortfolioTool(holdings repo.HoldingRepository, cfg *models.AgentConfig) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{"type": "object", "properties": map[string]interface{}{}})
	return &agentcore.FuncTool{
		ToolName:        "get_portfolio",
		ToolDescription: "Fetch the agent's current cash balance and holdings.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			list, err := holdings.ListByAgent(cfg.AgentID)
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			payload, _ := json.Marshal(map[string]interface{}{
				"cash_balance": cfg.CashBalance.String(),
				"holdings":     list,
			})
			return &agentcore.ToolResult{Content: string(payload)}, nil
		},
	}
}

func newQuoteTool(gw market.Gateway) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"ticker": map[string]interface{}{"type": "string"}},
		"required":   []string{"ticker"},
	})
	return &agentcore.FuncTool{
		ToolName:        "get_quote",
		ToolDescription: "Fetch the current bid/ask/last price and volume for a ticker.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				Ticker string `json:"ticker"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			quote, err := gw.GetQuote(ctx, args.Ticker)
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			payload, _ := json.Marshal(quote)
			return &agentcore.ToolResult{Content: string(payload)}, nil
		},
	}
}

func newWebSearchTool(gw connectors.Gateway) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		"required":   []string{"query"},
	})
	return &agentcore.FuncTool{
		ToolName:        "web_search",
		ToolDescription: "Search the public web for news or context relevant to a ticker or market event.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			results, err := gw.Search(ctx, args.Query)
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			payload, _ := json.Marshal(results)
			return &agentcore.ToolResult{Content: string(payload)}, nil
		},
	}
}

func newWebConnectorTool(gw connectors.Gateway) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"url": map[string]interface{}{"type": "string"}},
		"required":   []string{"url"},
	})
	return &agentcore.FuncTool{
		ToolName:        "fetch_webpage",
		ToolDescription: "Fetch the readable text content of a single web page by URL.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			text, err := gw.FetchPage(ctx, args.URL)
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			return &agentcore.ToolResult{Content: text}, nil
		},
	}
}

func newCodeInterpreterTool(gw connectors.Gateway) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"language": map[string]interface{}{"type": "string"},
			"code":     map[string]interface{}{"type": "string"},
		},
		"required": []string{"language", "code"},
	})
	return &agentcore.FuncTool{
		ToolName:        "run_code_snippet",
		ToolDescription: "Run a short, read-only code snippet in a sandboxed interpreter for ad hoc calculations. Cannot place trades or reach the portfolio database.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				Language string `json:"language"`
				Code     string `json:"code"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			output, err := gw.RunSnippet(ctx, args.Language, args.Code)
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			return &agentcore.ToolResult{Content: output}, nil
		},
	}
}
