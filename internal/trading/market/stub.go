package market

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ScriptedResponse is one canned reply for a StubGateway call, optionally
// an error to return instead of a result.
type ScriptedResponse struct {
	Result *ExecutionResult
	Err    error
}

// StubGateway is a deterministic, in-memory Gateway used by cycle-runner
// and trade-execution tests (§8 scenarios 1-4) — scripted quotes and a
// queue of buy/sell responses consumed in order, so a test can express
// "fails once then succeeds" without a real market server.
type StubGateway struct {
	mu            sync.Mutex
	Quotes        map[string]*Quote
	Histories     map[string][]decimal.Decimal
	BuyResponses  []ScriptedResponse
	SellResponses []ScriptedResponse
	TradingDay    bool
	Released      bool
}

func NewStubGateway() *StubGateway {
	return &StubGateway{
		Quotes:     map[string]*Quote{},
		Histories:  map[string][]decimal.Decimal{},
		TradingDay: true,
	}
}

func (s *StubGateway) GetHistory(_ context.Context, ticker string, lookback int) ([]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	closes, ok := s.Histories[ticker]
	if !ok {
		return nil, nil
	}
	if lookback > 0 && len(closes) > lookback {
		closes = closes[len(closes)-lookback:]
	}
	return closes, nil
}

func (s *StubGateway) GetQuote(_ context.Context, ticker string) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.Quotes[ticker]
	if !ok {
		return &Quote{Ticker: ticker, Last: decimal.NewFromInt(100)}, nil
	}
	return q, nil
}

func (s *StubGateway) Buy(_ context.Context, _ string, _ int64, _ *decimal.Decimal) (*ExecutionResult, error) {
	return s.pop(&s.BuyResponses)
}

func (s *StubGateway) Sell(_ context.Context, _ string, _ int64, _ *decimal.Decimal) (*ExecutionResult, error) {
	return s.pop(&s.SellResponses)
}

func (s *StubGateway) pop(queue *[]ScriptedResponse) (*ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(*queue) == 0 {
		return &ExecutionResult{ExecutedPrice: decimal.NewFromInt(100), Fee: decimal.Zero, Timestamp: time.Now()}, nil
	}
	next := (*queue)[0]
	*queue = (*queue)[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return next.Result, nil
}

func (s *StubGateway) IsTradingDay(_ context.Context, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TradingDay, nil
}

func (s *StubGateway) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = true
}
