package llm

import (
	"context"

	"github.com/casualtrader/engine/internal/agentcore"
)

// ScriptedProvider is a deterministic LLMProvider for Cycle Runner tests
// (§8 scenarios 1-4): each Complete call consumes the next scripted
// response in order, so a test can express "call execute_trade_atomic
// once, then answer".
type ScriptedProvider struct {
	Responses []agentcore.CompletionResponse
	calls     int
}

func (p *ScriptedProvider) Name() string        { return "scripted" }
func (p *ScriptedProvider) SupportsTools() bool { return true }

func (p *ScriptedProvider) Complete(_ context.Context, _ *agentcore.CompletionRequest) (*agentcore.CompletionResponse, error) {
	if p.calls >= len(p.Responses) {
		return &agentcore.CompletionResponse{Content: "no further scripted responses", Stopped: true}, nil
	}
	resp := p.Responses[p.calls]
	p.calls++
	return &resp, nil
}

func (p *ScriptedProvider) CallCount() int { return p.calls }
