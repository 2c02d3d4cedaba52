// Package llm is the OpenAI-compatible chat-completions provider
// plugged into internal/agentcore.Runtime. Grounded on the
// Authorization-header/http.Client shape the teacher used for its
// embeddings call, wrapped with the same circuit-breaker/retry idiom the
// teacher applied to its own LLM client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/concurrency"
)

const (
	TempTrading = 0.3 // deterministic trading decisions
	TempGeneral = 0.5
)

type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	breaker     *concurrency.CircuitBreaker
	temperature float64
}

type Option func(*Client)

func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		temperature: TempTrading,
		breaker: concurrency.NewCircuitBreaker(concurrency.CircuitBreakerConfig{
			Name:             "llm-gateway",
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 2,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string           { return "openai-compatible" }
func (c *Client) SupportsTools() bool    { return true }

func (c *Client) Complete(ctx context.Context, req *agentcore.CompletionRequest) (*agentcore.CompletionResponse, error) {
	wireReq := chatCompletionRequest{
		Model:       req.Model,
		Temperature: c.temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    toWireMessages(req.System, req.Messages),
		Tools:       toWireTools(req.Tools),
	}

	var wireResp chatCompletionResponse
	err := c.breaker.Call(func() error {
		return concurrency.RetryWithBackoff(func() error {
			return c.post(ctx, wireReq, &wireResp)
		}, concurrency.BackoffConfig{
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
			MaxRetries:   2,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("llm: completion request failed: %w", err)
	}
	if wireResp.Error != nil {
		return nil, fmt.Errorf("llm: provider error: %s", wireResp.Error.Message)
	}
	if len(wireResp.Choices) == 0 {
		return nil, fmt.Errorf("llm: provider returned no choices")
	}

	choice := wireResp.Choices[0]
	return &agentcore.CompletionResponse{
		Content:   choice.Message.Content,
		ToolCalls: fromWireToolCalls(choice.Message.ToolCalls),
		Stopped:   choice.FinishReason == "stop",
	}, nil
}

func (c *Client) post(ctx context.Context, body chatCompletionRequest, out *chatCompletionResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm: provider responded with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toWireMessages(system string, messages []agentcore.Message) []chatMessage {
	wire := make([]chatMessage, 0, len(messages)+1)
	if system != "" {
		wire = append(wire, chatMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		wire = append(wire, chatMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCalls:  toWireToolCalls(m.ToolCalls),
			ToolCallID: m.ToolCallID,
		})
	}
	return wire
}

func toWireToolCalls(calls []agentcore.ToolCall) []toolCallWire {
	if len(calls) == 0 {
		return nil
	}
	wire := make([]toolCallWire, len(calls))
	for i, c := range calls {
		wire[i] = toolCallWire{
			ID:   c.ID,
			Type: "function",
			Function: functionCallWire{
				Name:      c.Name,
				Arguments: string(c.Arguments),
			},
		}
	}
	return wire
}

func fromWireToolCalls(calls []toolCallWire) []agentcore.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]agentcore.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = agentcore.ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: json.RawMessage(c.Function.Arguments),
		}
	}
	return out
}

func toWireTools(tools []agentcore.Tool) []toolSpec {
	if len(tools) == 0 {
		return nil
	}
	wire := make([]toolSpec, len(tools))
	for i, t := range tools {
		wire[i] = toolSpec{
			Type: "function",
			Function: functionSpec{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		}
	}
	return wire
}
