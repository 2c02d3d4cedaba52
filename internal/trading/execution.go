package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casualtrader/engine/internal/agentcore"
	"github.com/casualtrader/engine/internal/eventbus"
	"github.com/casualtrader/engine/internal/logger"
	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading/market"
)

// lotSize is the Taiwan market's minimum tradable unit: orders must be a
// whole multiple of 1000 shares.
const lotSize = 1000

// TradeRequest is the parameter set the execute_trade_atomic tool passes
// through from the agent's tool call.
type TradeRequest struct {
	AgentID        string
	SessionID      uuid.UUID
	Ticker         string
	Action         models.TradeAction
	Quantity       int64
	LimitPrice     *decimal.Decimal
	DecisionReason string
	DedupKey       string
}

// TradeResult is what the tool reports back to the calling agent.
type TradeResult struct {
	Transaction models.Transaction
	CashAfter   decimal.Decimal
	Deduplicated bool
}

// ExecuteTradeAtomic is the single path by which cash and positions ever
// change. It runs the 7-step algorithm (§4.5) in order: validate, check
// idempotency and check the market is open before any DB transaction
// opens; then, inside one DB transaction, lock cash and position rows,
// call the gateway, record the transaction and update state, and
// best-effort snapshot — with the TradeExecuted event published only
// after commit succeeds.
func ExecuteTradeAtomic(ctx context.Context, db *gorm.DB, gw market.Gateway, bus eventbus.EventBusInterface, req TradeRequest) (*TradeResult, error) {
	if req.Quantity <= 0 || req.Quantity%lotSize != 0 {
		return nil, NewErrorWithDetails(ErrValidation, "quantity must be a positive multiple of 1000", map[string]interface{}{"quantity": req.Quantity}, nil)
	}
	if req.Action != models.ActionBuy && req.Action != models.ActionSell {
		return nil, NewError(ErrValidation, fmt.Sprintf("unknown action %q", req.Action), nil)
	}

	if req.DedupKey != "" {
		var existing models.Transaction
		err := db.Where("agent_id = ? AND dedup_key = ?", req.AgentID, req.DedupKey).First(&existing).Error
		if err == nil {
			return &TradeResult{Transaction: existing, Deduplicated: true}, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, NewError(ErrInternal, "dedup lookup failed", err)
		}
	}

	open, err := gw.IsTradingDay(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, NewError(ErrMarketClosed, "market is closed", nil)
	}

	var result TradeResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var cfg models.AgentConfig
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("agent_id = ?", req.AgentID).First(&cfg).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewError(ErrAgentNotFound, "agent config not found", err)
			}
			return NewError(ErrInternal, "failed to lock agent config", err)
		}

		var holding models.Holding
		holdingErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("agent_id = ? AND ticker = ?", req.AgentID, req.Ticker).First(&holding).Error
		hasHolding := holdingErr == nil
		if holdingErr != nil && holdingErr != gorm.ErrRecordNotFound {
			return NewError(ErrInternal, "failed to lock holding", holdingErr)
		}
		if !hasHolding {
			holding = models.Holding{AgentID: req.AgentID, Ticker: req.Ticker, Quantity: 0, AverageCost: decimal.Zero}
		}

		if req.Action == models.ActionSell && holding.Quantity < req.Quantity {
			return NewErrorWithDetails(ErrInsufficientPosition, "insufficient shares to sell", map[string]interface{}{
				"held": holding.Quantity, "requested": req.Quantity,
			}, nil)
		}

		var exec *market.ExecutionResult
		if req.Action == models.ActionBuy {
			exec, err = gw.Buy(ctx, req.Ticker, req.Quantity, req.LimitPrice)
		} else {
			exec, err = gw.Sell(ctx, req.Ticker, req.Quantity, req.LimitPrice)
		}
		if err != nil {
			return err
		}

		gross := exec.ExecutedPrice.Mul(decimal.NewFromInt(req.Quantity))
		var netCashDelta decimal.Decimal
		if req.Action == models.ActionBuy {
			netCashDelta = gross.Add(exec.Fee).Neg()
		} else {
			netCashDelta = gross.Sub(exec.Fee)
		}

		if req.Action == models.ActionBuy && cfg.CashBalance.Add(netCashDelta).IsNegative() {
			return NewErrorWithDetails(ErrInsufficientFunds, "insufficient cash for purchase", map[string]interface{}{
				"cash_balance": cfg.CashBalance.String(), "required": gross.Add(exec.Fee).String(),
			}, nil)
		}

		if req.Action == models.ActionBuy {
			var allHoldings []models.Holding
			if err := tx.Where("agent_id = ?", req.AgentID).Find(&allHoldings).Error; err != nil {
				return NewError(ErrInternal, "failed to value portfolio for position-size check", err)
			}
			positionsValue := decimal.Zero
			for _, h := range allHoldings {
				positionsValue = positionsValue.Add(h.AverageCost.Mul(decimal.NewFromInt(h.Quantity)))
			}
			totalPortfolioValue := cfg.CashBalance.Add(positionsValue)
			maxOrderValue := cfg.InvestmentPreferences.MaxPositionSizePct.Div(decimal.NewFromInt(100)).Mul(totalPortfolioValue)
			if gross.GreaterThan(maxOrderValue) {
				return NewErrorWithDetails(ErrValidation, "order exceeds configured max position size", map[string]interface{}{
					"order_value":           gross.String(),
					"max_order_value":       maxOrderValue.String(),
					"max_position_size_pct": cfg.InvestmentPreferences.MaxPositionSizePct.String(),
					"total_portfolio_value": totalPortfolioValue.String(),
				}, nil)
			}
		}

		txn := models.Transaction{
			TransactionID:  uuid.New(),
			AgentID:        req.AgentID,
			SessionID:      req.SessionID,
			Ticker:         req.Ticker,
			Action:         req.Action,
			Quantity:       req.Quantity,
			ExecutedPrice:  exec.ExecutedPrice,
			GrossAmount:    gross,
			Fee:            exec.Fee,
			NetCashDelta:   netCashDelta,
			ExecutedAt:     exec.Timestamp,
			DecisionReason: req.DecisionReason,
		}
		if req.DedupKey != "" {
			txn.DedupKey = &req.DedupKey
		}
		if err := tx.Create(&txn).Error; err != nil {
			return NewError(ErrInternal, "failed to record transaction", err)
		}

		if req.Action == models.ActionBuy {
			newQty := holding.Quantity + req.Quantity
			totalCost := holding.AverageCost.Mul(decimal.NewFromInt(holding.Quantity)).Add(gross)
			holding.AverageCost = totalCost.Div(decimal.NewFromInt(newQty))
			holding.Quantity = newQty
			if err := tx.Save(&holding).Error; err != nil {
				return NewError(ErrInternal, "failed to update holding", err)
			}
		} else {
			holding.Quantity -= req.Quantity
			if holding.Quantity == 0 {
				if hasHolding {
					if err := tx.Delete(&holding).Error; err != nil {
						return NewError(ErrInternal, "failed to clear holding", err)
					}
				}
			} else if err := tx.Save(&holding).Error; err != nil {
				return NewError(ErrInternal, "failed to update holding", err)
			}
		}

		cfg.CashBalance = cfg.CashBalance.Add(netCashDelta)
		if err := tx.Model(&models.AgentConfig{}).Where("agent_id = ?", req.AgentID).
			Update("cash_balance", cfg.CashBalance).Error; err != nil {
			return NewError(ErrInternal, "failed to update cash balance", err)
		}

		if err := tx.Transaction(func(stx *gorm.DB) error {
			return bestEffortSnapshot(stx, req.AgentID, cfg.CashBalance)
		}); err != nil {
			logger.Error("execute_trade_atomic: failed to write post-trade snapshot", err, "agent_id", req.AgentID)
		}

		result = TradeResult{Transaction: txn, CashAfter: cfg.CashBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if bus != nil {
		_ = bus.Publish(eventbus.EventTypeTradeExecuted, eventbus.NewTradeExecutedEvent(
			result.Transaction.TransactionID.String(), req.AgentID, req.SessionID.String(),
			req.Ticker, string(req.Action), req.Quantity,
			result.Transaction.ExecutedPrice.String(), result.Transaction.Fee.String(),
		))
	}

	return &result, nil
}

// NewTradeExecutionTool exposes ExecuteTradeAtomic as the
// execute_trade_atomic tool — the only tool in the Cycle Runner's
// inventory that can mutate cash or positions, materialized iff
// IncludeTradeExecution is set for the running mode.
func NewTradeExecutionTool(db *gorm.DB, gw market.Gateway, bus eventbus.EventBusInterface, agentID string, sessionID uuid.UUID) agentcore.Tool {
	schema, _ := json.Marshal(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ticker":          map[string]interface{}{"type": "string"},
			"action":          map[string]interface{}{"type": "string", "enum": []string{"BUY", "SELL"}},
			"quantity":        map[string]interface{}{"type": "integer", "description": "must be a multiple of 1000"},
			"limit_price":     map[string]interface{}{"type": "number"},
			"decision_reason": map[string]interface{}{"type": "string"},
			"dedup_key":       map[string]interface{}{"type": "string", "description": "unique per intended trade; repeats are deduplicated"},
		},
		"required": []string{"ticker", "action", "quantity", "decision_reason"},
	})

	return &agentcore.FuncTool{
		ToolName:        "execute_trade_atomic",
		ToolDescription: "Execute a buy or sell order against the Taiwan market simulator. Quantity must be a multiple of 1000 shares.",
		ToolSchema:      schema,
		Fn: func(ctx context.Context, params json.RawMessage) (*agentcore.ToolResult, error) {
			var args struct {
				Ticker         string   `json:"ticker"`
				Action         string   `json:"action"`
				Quantity       int64    `json:"quantity"`
				LimitPrice     *float64 `json:"limit_price"`
				DecisionReason string   `json:"decision_reason"`
				DedupKey       string   `json:"dedup_key"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return &agentcore.ToolResult{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
			}

			var limitPrice *decimal.Decimal
			if args.LimitPrice != nil {
				lp := decimal.NewFromFloat(*args.LimitPrice)
				limitPrice = &lp
			}

			result, err := ExecuteTradeAtomic(ctx, db, gw, bus, TradeRequest{
				AgentID:        agentID,
				SessionID:      sessionID,
				Ticker:         args.Ticker,
				Action:         models.TradeAction(args.Action),
				Quantity:       args.Quantity,
				LimitPrice:     limitPrice,
				DecisionReason: args.DecisionReason,
				DedupKey:       args.DedupKey,
			})
			if err != nil {
				return &agentcore.ToolResult{Content: err.Error(), IsError: true}, nil
			}

			payload, _ := json.Marshal(map[string]interface{}{
				"transaction_id": result.Transaction.TransactionID.String(),
				"executed_price": result.Transaction.ExecutedPrice.String(),
				"fee":             result.Transaction.Fee.String(),
				"cash_after":      result.CashAfter.String(),
				"deduplicated":    result.Deduplicated,
			})
			return &agentcore.ToolResult{Content: string(payload)}, nil
		},
	}
}

// bestEffortSnapshot writes a PortfolioSnapshot valuing holdings at
// average cost. ExecuteTradeAtomic runs it in a nested transaction (a
// savepoint) of the trade's own transaction and only logs its error, so a
// snapshot-write glitch never rolls back an otherwise-valid trade.
func bestEffortSnapshot(tx *gorm.DB, agentID string, cash decimal.Decimal) error {
	var holdings []models.Holding
	if err := tx.Where("agent_id = ?", agentID).Find(&holdings).Error; err != nil {
		return err
	}
	positionsValue := decimal.Zero
	for _, h := range holdings {
		positionsValue = positionsValue.Add(h.AverageCost.Mul(decimal.NewFromInt(h.Quantity)))
	}
	snap := models.PortfolioSnapshot{
		AgentID:        agentID,
		TakenAt:        time.Now(),
		Cash:           cash,
		PositionsValue: positionsValue,
		TotalValue:     cash.Add(positionsValue),
		UnrealizedPnL:  decimal.Zero,
	}
	return tx.Create(&snap).Error
}
