// Package connectors is the capability boundary for the three optional
// research connectors a cycle can load (§4.1): web search, a read-only
// web page fetch, and a sandboxed code interpreter. All three are
// thin JSON-over-HTTP clients to an external tool server, the same
// shape as internal/trading/market.HTTPGateway, and degrade to a
// clear "not configured" error rather than a panic when no base URL
// is set for a given connector.
package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/casualtrader/engine/internal/concurrency"
)

// SearchResult is one hit returned by the web search connector.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Gateway is the capability surface runCycle registers tools against.
// Implementations must be safe for concurrent use across cycles.
type Gateway interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	FetchPage(ctx context.Context, url string) (string, error)
	RunSnippet(ctx context.Context, language, code string) (string, error)
}

// HTTPGateway talks to three independently configurable tool-server
// endpoints. A blank base URL disables that one connector without
// affecting the other two.
type HTTPGateway struct {
	searchBaseURL  string
	fetchBaseURL   string
	sandboxBaseURL string
	client         *http.Client
	breaker        *concurrency.CircuitBreaker
}

func NewHTTPGateway(searchBaseURL, fetchBaseURL, sandboxBaseURL string) *HTTPGateway {
	return &HTTPGateway{
		searchBaseURL:  searchBaseURL,
		fetchBaseURL:   fetchBaseURL,
		sandboxBaseURL: sandboxBaseURL,
		client:         &http.Client{Timeout: 15 * time.Second},
		breaker: concurrency.NewCircuitBreaker(concurrency.CircuitBreakerConfig{
			Name:             "connectors-gateway",
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 2,
		}),
	}
}

var errNotConfigured = fmt.Errorf("connector not configured")

func (g *HTTPGateway) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if g.searchBaseURL == "" {
		return nil, errNotConfigured
	}
	var resp struct {
		Results []SearchResult `json:"results"`
	}
	err := g.breaker.Call(func() error {
		return g.postJSON(ctx, g.searchBaseURL+"/search", map[string]interface{}{"query": query}, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (g *HTTPGateway) FetchPage(ctx context.Context, url string) (string, error) {
	if g.fetchBaseURL == "" {
		return "", errNotConfigured
	}
	var resp struct {
		Text string `json:"text"`
	}
	err := g.breaker.Call(func() error {
		return g.postJSON(ctx, g.fetchBaseURL+"/fetch", map[string]interface{}{"url": url}, &resp)
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (g *HTTPGateway) RunSnippet(ctx context.Context, language, code string) (string, error) {
	if g.sandboxBaseURL == "" {
		return "", errNotConfigured
	}
	var resp struct {
		Output string `json:"output"`
	}
	err := g.breaker.Call(func() error {
		return g.postJSON(ctx, g.sandboxBaseURL+"/run", map[string]interface{}{"language": language, "code": code}, &resp)
	})
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("connector server error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
