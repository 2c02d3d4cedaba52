package trading

import (
	"context"
	"encoding/json"

	talib "github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/trading/market"
)

// IndicatorSet is what the technical analyst reads instead of raw closes —
// SMA/RSI from go-talib, plus a realized-volatility figure from gonum/stat
// that talib has no equivalent for.
type IndicatorSet struct {
	Ticker     string  `json:"ticker"`
	Last       float64 `json:"last"`
	SMA20      float64 `json:"sma_20"`
	RSI14      float64 `json:"rsi_14"`
	Volatility float64 `json:"volatility"`
}

// computeIndicators requires at least 15 closes for a meaningful RSI(14);
// callers with thinner history get zeroed indicator fields rather than an
// error — a quiet ticker is not a failure.
func computeIndicators(ticker string, closes []decimal.Decimal) IndicatorSet {
	set := IndicatorSet{Ticker: ticker}
	if len(closes) == 0 {
		return set
	}

	floats := make([]float64, len(closes))
	for i, c := range closes {
		floats[i] = c.InexactFloat64()
	}
	set.Last = floats[len(floats)-1]

	if len(floats) >= 20 {
		sma := talib.Sma(floats, 20)
		set.SMA20 = sma[len(sma)-1]
	}
	if len(floats) >= 15 {
		rsi := talib.Rsi(floats, 14)
		set.RSI14 = rsi[len(rsi)-1]
	}
	if len(floats) >= 2 {
		returns := make([]float64, len(floats)-1)
		for i := 1; i < len(floats); i++ {
			returns[i-1] = (floats[i] - floats[i-1]) / floats[i-1]
		}
		set.Volatility = stat.StdDev(returns, nil)
	}
	return set
}

// newIndicatorTool is registered only on the technical analyst's nested
// runtime (§4.2) — it is the one tool that reaches the market gateway from
// inside a read-only sub-analyst, and it never mutates anything.
func newIndicatorTool(gw market.Gateway) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker":   map[string]interface{}{"type": "string"},
			"lookback": map[string]interface{}{"type": "integer", "description": "number of trading days of history, default 30"},
		},
		"required": []string{"ticker"},
	})
	return &agentcore.FuncTool{
		ToolName:        "price_indicators",
		ToolDescription: "Compute SMA(20), RSI(14) and realized volatility from recent daily closes for a ticker.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				Ticker   string `json:"ticker"`
				Lookback int    `json:"lookback"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}
			if args.Lookback <= 0 {
				args.Lookback = 30
			}
			closes, err := gw.GetHistory(ctx, args.Ticker, args.Lookback)
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			payload, _ := json.Marshal(computeIndicators(args.Ticker, closes))
			return &agentcore.ToolResult{Content: string(payload)}, nil
		},
	}
}
