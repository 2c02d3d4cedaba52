package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LLMProvider abstracts the chat-completion backend. internal/llm.Client
// is the only implementation; tests use a ScriptedProvider.
type LLMProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
	SupportsTools() bool
}

type CompletionRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Tools     []Tool    `json:"-"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Message is one turn in the conversation. Role is "user", "assistant"
// or "tool".
type Message struct {
	Role        string       `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolCallID  string       `json:"tool_call_id,omitempty"`
}

// CompletionResponse is the provider's answer for one turn: either final
// text, or a set of tool calls the Runtime must execute before the next
// turn.
type CompletionResponse struct {
	Content   string
	ToolCalls []ToolCall
	Stopped   bool
}

// RunResult summarizes a finished Runtime.Run invocation — turns
// consumed, every tool invocation made (so the Cycle Runner can tell
// which Transactions came from this session), and the LLM's final
// natural-language answer.
type RunResult struct {
	Turns       int
	ToolCalls   []ExecutedToolCall
	FinalAnswer string
	TimedOut    bool
	Cancelled   bool
}

type ExecutedToolCall struct {
	Name      string
	Arguments json.RawMessage
	Result    *ToolResult
}

// Runtime drives one bounded tool-calling conversation: call the
// provider, execute any requested tools, feed results back, repeat until
// the model stops calling tools, the turn cap is hit, the wall clock
// deadline expires, or ctx is cancelled.
type Runtime struct {
	provider      LLMProvider
	tools         map[string]Tool
	maxIterations int
	maxWallTime   time.Duration
}

func NewRuntime(provider LLMProvider, maxIterations int, maxWallTime time.Duration) *Runtime {
	return &Runtime{
		provider:      provider,
		tools:         map[string]Tool{},
		maxIterations: maxIterations,
		maxWallTime:   maxWallTime,
	}
}

func (r *Runtime) RegisterTool(tool Tool) {
	r.tools[tool.Name()] = tool
}

func (r *Runtime) toolList() []Tool {
	list := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	return list
}

// Run executes the loop described above. The Cycle Runner checks
// cancellation at each suspension boundary by passing a ctx that is
// cancelled on stop — Run itself only has to respect ctx.Done().
func (r *Runtime) Run(ctx context.Context, model, system, userPrompt string) (*RunResult, error) {
	deadline := time.Now().Add(r.maxWallTime)
	messages := []Message{{Role: "user", Content: userPrompt}}
	result := &RunResult{}

	for turn := 0; turn < r.maxIterations; turn++ {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			return result, nil
		default:
		}
		if time.Now().After(deadline) {
			result.TimedOut = true
			return result, nil
		}

		resp, err := r.provider.Complete(ctx, &CompletionRequest{
			Model:    model,
			System:   system,
			Messages: messages,
			Tools:    r.toolList(),
		})
		if err != nil {
			return result, fmt.Errorf("agentcore: completion failed on turn %d: %w", turn, err)
		}
		result.Turns = turn + 1

		if len(resp.ToolCalls) == 0 {
			result.FinalAnswer = resp.Content
			return result, nil
		}

		messages = append(messages, Message{Role: "assistant", ToolCalls: resp.ToolCalls, Content: resp.Content})

		for _, call := range resp.ToolCalls {
			select {
			case <-ctx.Done():
				result.Cancelled = true
				return result, nil
			default:
			}

			toolResult := r.executeTool(ctx, call)
			result.ToolCalls = append(result.ToolCalls, ExecutedToolCall{
				Name:      call.Name,
				Arguments: call.Arguments,
				Result:    toolResult,
			})
			messages = append(messages, Message{
				Role:       "tool",
				Content:    toolResult.Content,
				ToolCallID: call.ID,
			})
		}
	}

	result.FinalAnswer = "turn budget exhausted without a final answer"
	return result, nil
}

func (r *Runtime) executeTool(ctx context.Context, call ToolCall) *ToolResult {
	tool, ok := r.tools[call.Name]
	if !ok {
		return &ToolResult{Content: fmt.Sprintf("unknown tool %q", call.Name), IsError: true}
	}
	res, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		return &ToolResult{Content: err.Error(), IsError: true}
	}
	return res
}
