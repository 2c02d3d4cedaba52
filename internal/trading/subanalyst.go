package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/trading/market"
)

// AnalystKind names the four specialist analysts the registry can
// materialize (§4.2).
type AnalystKind string

const (
	AnalystTechnical   AnalystKind = "technical"
	AnalystFundamental AnalystKind = "fundamental"
	AnalystSentiment   AnalystKind = "sentiment"
	AnalystRisk        AnalystKind = "risk"
)

// Finding is the structured result a sub-analyst reports back to the
// parent agent. Sub-analysts MUST NOT execute trades and MUST be
// idempotent with respect to external state (read-only).
type Finding struct {
	Analyst    AnalystKind `json:"analyst"`
	Subject    string      `json:"subject"` // symbol, or "portfolio"
	Summary    string      `json:"summary"`
	Confidence float64     `json:"confidence"`
}

// analystSpec is the fixed instruction set and turn budget for one kind
// of sub-analyst; instantiated fresh per cycle, never cached, so no
// LLM context leaks across agents (§5, "Shared resource policy").
type analystSpec struct {
	kind         AnalystKind
	description  string
	instructions string
	maxTurns     int
}

var registry = map[AnalystKind]analystSpec{
	AnalystTechnical: {
		kind:         AnalystTechnical,
		description:  "Technical analysis: price action, moving averages, momentum indicators.",
		instructions: "You are a technical analyst. Given a symbol or portfolio, report trend, support/resistance and momentum signals. You do not trade.",
		maxTurns:     3,
	},
	AnalystFundamental: {
		kind:         AnalystFundamental,
		description:  "Fundamental analysis: financials, valuation, sector positioning.",
		instructions: "You are a fundamental analyst. Given a symbol, report on valuation and financial health. You do not trade.",
		maxTurns:     3,
	},
	AnalystSentiment: {
		kind:         AnalystSentiment,
		description:  "Sentiment analysis: news flow and market sentiment.",
		instructions: "You are a sentiment analyst. Given a symbol, summarize prevailing market sentiment and notable news. You do not trade.",
		maxTurns:     3,
	},
	AnalystRisk: {
		kind:         AnalystRisk,
		description:  "Risk analysis: position sizing, concentration, drawdown exposure.",
		instructions: "You are a risk analyst. Given a portfolio and a proposed action, report concentration and drawdown risk. You do not trade.",
		maxTurns:     3,
	},
}

// MaterializeFn invokes one sub-analyst as a nested, bounded LLM agent
// and returns its finding. The Registry wraps it as an agentcore.Tool so
// the parent agent can call it by name.
type MaterializeFn func(ctx context.Context, subject, context_ string) (*Finding, error)

// Registry materializes the enabled sub-analysts into callable tools.
// Failure to materialize any one analyst fails the whole cycle
// (ToolMaterializationError) — partial loading is forbidden so the
// decision surface stays deterministic.
type Registry struct {
	newRuntime func(spec analystSpec) *agentcore.Runtime
	model      string
	gatewayFor func() market.Gateway
}

func NewRegistry(provider agentcore.LLMProvider, model string, gatewayFor func() market.Gateway) *Registry {
	return &Registry{
		model:      model,
		gatewayFor: gatewayFor,
		newRuntime: func(spec analystSpec) *agentcore.Runtime {
			return agentcore.NewRuntime(provider, spec.maxTurns, 30*time.Second)
		},
	}
}

// Materialize returns one agentcore.Tool per enabled analyst flag in req.
func (r *Registry) Materialize(req ToolRequirements) ([]agentcore.Tool, error) {
	var kinds []AnalystKind
	if req.IncludeTechnicalAnalyst {
		kinds = append(kinds, AnalystTechnical)
	}
	if req.IncludeFundamentalAnalyst {
		kinds = append(kinds, AnalystFundamental)
	}
	if req.IncludeSentimentAnalyst {
		kinds = append(kinds, AnalystSentiment)
	}
	if req.IncludeRiskAnalyst {
		kinds = append(kinds, AnalystRisk)
	}

	tools := make([]agentcore.Tool, 0, len(kinds))
	for _, kind := range kinds {
		spec, ok := registry[kind]
		if !ok {
			return nil, NewError(ErrToolMaterialization, fmt.Sprintf("no analyst spec for %q", kind), nil)
		}
		tools = append(tools, r.wrapAnalyst(spec))
	}
	return tools, nil
}

func (r *Registry) wrapAnalyst(spec analystSpec) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"subject": map[string]interface{}{"type": "string", "description": "symbol or 'portfolio'"},
			"context": map[string]interface{}{"type": "string", "description": "relevant portfolio/market context"},
		},
		"required": []string{"subject"},
	})

	return &agentcore.FuncTool{
		ToolName:        string(spec.kind) + "_analyst",
		ToolDescription: spec.description,
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				Subject string `json:"subject"`
				Context string `json:"context"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}

			runtime := r.newRuntime(spec)
			if spec.kind == AnalystTechnical && r.gatewayFor != nil {
				gw := r.gatewayFor()
				defer gw.Release()
				runtime.RegisterTool(newIndicatorTool(gw))
			}
			result, err := runtime.Run(ctx, r.model, spec.instructions, fmt.Sprintf("Subject: %s\nContext: %s", args.Subject, args.Context))
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}

			finding := Finding{
				Analyst: spec.kind,
				Subject: args.Subject,
				Summary: result.FinalAnswer,
			}
			payload, _ := json.Marshal(finding)
			return &agentcore.ToolResult{Content: string(payload)}, nil
		},
	}
}
