// Package market is the thin capability boundary to the external Taiwan
// market tool server: quotes, simulated buy/sell with fees, and trading
// day lookups (§4.3). It owns no business logic — authoritative fee and
// price are whatever the gateway returns.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casualtrader/engine/internal/concurrency"
	"github.com/casualtrader/engine/internal/trading/tradeerr"
)

// Quote is the wire shape returned by get_quote.
type Quote struct {
	Ticker string          `json:"ticker"`
	Last   decimal.Decimal `json:"last"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Volume int64           `json:"volume"`
}

// ExecutionResult is the wire shape returned by buy/sell.
type ExecutionResult struct {
	ExecutedPrice decimal.Decimal `json:"executed_price"`
	Fee           decimal.Decimal `json:"fee"`
	Timestamp     time.Time       `json:"ts"`
}

// Gateway is the capability surface a Cycle Runner acquires for the
// lifetime of one cycle and releases on every exit path.
type Gateway interface {
	GetQuote(ctx context.Context, ticker string) (*Quote, error)
	GetHistory(ctx context.Context, ticker string, lookback int) ([]decimal.Decimal, error)
	Buy(ctx context.Context, ticker string, quantity int64, limitPrice *decimal.Decimal) (*ExecutionResult, error)
	Sell(ctx context.Context, ticker string, quantity int64, limitPrice *decimal.Decimal) (*ExecutionResult, error)
	IsTradingDay(ctx context.Context, date time.Time) (bool, error)
	// Release returns any scoped connection resources. Must be safe to
	// call multiple times and on every exit path, per §4.3.
	Release()
}

// HTTPGateway talks to the market tool server's JSON-over-HTTP endpoints,
// the same io.ReadCloser/json.Decode shape as
// internal/repositories.AssetRepository's CoinGecko client, wrapped in a
// circuit breaker for the same "flaky external JSON service" concern as
// internal/llm's provider client.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	breaker *concurrency.CircuitBreaker
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: concurrency.NewCircuitBreaker(concurrency.CircuitBreakerConfig{
			Name:             "market-gateway",
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 2,
		}),
	}
}

func (g *HTTPGateway) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	var quote Quote
	err := g.breaker.Call(func() error {
		return g.getJSON(ctx, fmt.Sprintf("/quote/%s", ticker), &quote)
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return &quote, nil
}

func (g *HTTPGateway) Buy(ctx context.Context, ticker string, quantity int64, limitPrice *decimal.Decimal) (*ExecutionResult, error) {
	return g.order(ctx, "buy", ticker, quantity, limitPrice)
}

func (g *HTTPGateway) Sell(ctx context.Context, ticker string, quantity int64, limitPrice *decimal.Decimal) (*ExecutionResult, error) {
	return g.order(ctx, "sell", ticker, quantity, limitPrice)
}

func (g *HTTPGateway) order(ctx context.Context, side, ticker string, quantity int64, limitPrice *decimal.Decimal) (*ExecutionResult, error) {
	body := map[string]interface{}{
		"ticker":   ticker,
		"quantity": quantity,
	}
	if limitPrice != nil {
		body["limit_price"] = limitPrice.String()
	}

	var result ExecutionResult
	err := g.breaker.Call(func() error {
		return g.postJSON(ctx, "/"+side, body, &result)
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return &result, nil
}

func (g *HTTPGateway) GetHistory(ctx context.Context, ticker string, lookback int) ([]decimal.Decimal, error) {
	var resp struct {
		Closes []decimal.Decimal `json:"closes"`
	}
	err := g.breaker.Call(func() error {
		return g.getJSON(ctx, fmt.Sprintf("/history/%s?lookback=%d", ticker, lookback), &resp)
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return resp.Closes, nil
}

func (g *HTTPGateway) IsTradingDay(ctx context.Context, date time.Time) (bool, error) {
	var resp struct {
		IsTradingDay bool `json:"is_trading_day"`
	}
	err := g.breaker.Call(func() error {
		return g.getJSON(ctx, fmt.Sprintf("/trading-day?date=%s", date.Format("2006-01-02")), &resp)
	})
	if err != nil {
		return false, translateErr(err)
	}
	return resp.IsTradingDay, nil
}

func (g *HTTPGateway) Release() {}

func (g *HTTPGateway) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("market server error: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &protocolError{status: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict {
		return &orderNotExecutableError{}
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("market server error: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &protocolError{status: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type protocolError struct{ status int }

func (e *protocolError) Error() string { return fmt.Sprintf("market protocol error: status %d", e.status) }

type orderNotExecutableError struct{}

func (e *orderNotExecutableError) Error() string { return "order not executable at given limit" }

// translateErr maps transport/protocol failures onto the stable
// UpstreamUnavailable (retryable) vs UpstreamProtocolError (fatal)
// kinds from §4.3, and OrderNotExecutable for limit rejections.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *orderNotExecutableError:
		return tradeerr.NewError(tradeerr.ErrOrderNotExecutable, "limit price infeasible", err)
	case *protocolError:
		return tradeerr.NewError(tradeerr.ErrUpstreamProtocol, "market server rejected request", err)
	default:
		return tradeerr.NewError(tradeerr.ErrUpstreamUnavailable, "market server unreachable", err)
	}
}
