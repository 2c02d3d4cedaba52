package trading_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
	"github.com/casualtrader/engine/internal/trading/market"
)

func seedAgent(t *testing.T, db *gorm.DB, agentID string, cash decimal.Decimal) {
	t.Helper()
	cfg := models.AgentConfig{
		AgentID:         agentID,
		DisplayName:     "test agent",
		ModelIdentifier: "gpt-4o-mini",
		Instructions:    "trade well",
		InitialFunds:    cash,
		CashBalance:     cash,
		MaxTurns:        8,
		DefaultMode:     models.ModeTrading,
		InvestmentPreferences: models.InvestmentPreferences{
			MaxPositionSizePct: decimal.NewFromInt(100),
		},
	}
	require.NoError(t, db.Create(&cfg).Error)
}

func TestExecuteTradeAtomic_RejectsNonLotSizeQuantity(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(100000))
	gw := market.NewStubGateway()

	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 500, DecisionReason: "test",
	})
	require.Error(t, err)
	assert.Equal(t, trading.ErrValidation, trading.KindOf(err))
}

func TestExecuteTradeAtomic_BuyDeductsCashAndOpensPosition(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))
	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(500), Fee: decimal.NewFromInt(20)}},
	}

	result, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "initiate position",
	})
	require.NoError(t, err)
	assert.False(t, result.Deduplicated)

	wantCash := decimal.NewFromInt(1000000).Sub(decimal.NewFromInt(500000)).Sub(decimal.NewFromInt(20))
	assert.True(t, wantCash.Equal(result.CashAfter), "want %s got %s", wantCash, result.CashAfter)

	var holding models.Holding
	require.NoError(t, db.Where("agent_id = ? AND ticker = ?", "agent-1", "2330").First(&holding).Error)
	assert.Equal(t, int64(1000), holding.Quantity)
	assert.True(t, decimal.NewFromInt(500).Equal(holding.AverageCost))
}

func TestExecuteTradeAtomic_BuyAveragesCostAcrossFills(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(10000000))
	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(500), Fee: decimal.Zero}},
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(600), Fee: decimal.Zero}},
	}

	for i := 0; i < 2; i++ {
		_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
			AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
			Quantity: 1000, DecisionReason: "dca",
		})
		require.NoError(t, err)
	}

	var holding models.Holding
	require.NoError(t, db.Where("agent_id = ? AND ticker = ?", "agent-1", "2330").First(&holding).Error)
	assert.Equal(t, int64(2000), holding.Quantity)
	assert.True(t, decimal.NewFromInt(550).Equal(holding.AverageCost), "average of 500 and 600 is 550, got %s", holding.AverageCost)
}

func TestExecuteTradeAtomic_SellRejectedWithoutEnoughShares(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(100000))
	gw := market.NewStubGateway()

	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionSell,
		Quantity: 1000, DecisionReason: "test",
	})
	require.Error(t, err)
	assert.Equal(t, trading.ErrInsufficientPosition, trading.KindOf(err))
}

func TestExecuteTradeAtomic_SellDeletesHoldingWhenFullyClosed(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))
	require.NoError(t, db.Create(&models.Holding{AgentID: "agent-1", Ticker: "2330", Quantity: 1000, AverageCost: decimal.NewFromInt(500)}).Error)

	gw := market.NewStubGateway()
	gw.SellResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(520), Fee: decimal.NewFromInt(15)}},
	}

	result, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionSell,
		Quantity: 1000, DecisionReason: "close position",
	})
	require.NoError(t, err)

	wantCash := decimal.NewFromInt(1000000).Add(decimal.NewFromInt(520000)).Sub(decimal.NewFromInt(15))
	assert.True(t, wantCash.Equal(result.CashAfter))

	err = db.Where("agent_id = ? AND ticker = ?", "agent-1", "2330").First(&models.Holding{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "a fully closed position must not leave a zero-quantity row behind")
}

func TestExecuteTradeAtomic_InsufficientFundsRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000))
	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(500), Fee: decimal.Zero}},
	}

	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "too big",
	})
	require.Error(t, err)
	assert.Equal(t, trading.ErrInsufficientFunds, trading.KindOf(err))

	var cfg models.AgentConfig
	require.NoError(t, db.Where("agent_id = ?", "agent-1").First(&cfg).Error)
	assert.True(t, decimal.NewFromInt(1000).Equal(cfg.CashBalance), "a rejected trade must not touch cash")

	err = db.Where("agent_id = ? AND ticker = ?", "agent-1", "2330").First(&models.Holding{}).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "a rejected trade must not create a holding row")
}

func TestExecuteTradeAtomic_ClosedMarketRejectsTrade(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))
	gw := market.NewStubGateway()
	gw.TradingDay = false

	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "test",
	})
	require.Error(t, err)
	assert.Equal(t, trading.ErrMarketClosed, trading.KindOf(err))
}

func TestExecuteTradeAtomic_DedupKeyShortCircuitsRepeat(t *testing.T) {
	db := newTestDB(t)
	seedAgent(t, db, "agent-1", decimal.NewFromInt(1000000))
	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(500), Fee: decimal.Zero}},
	}

	req := trading.TradeRequest{
		AgentID: "agent-1", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "once", DedupKey: "cycle-7-buy-2330",
	}

	first, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, req)
	require.NoError(t, err)
	assert.False(t, first.Deduplicated)

	second, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, req)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Transaction.TransactionID, second.Transaction.TransactionID)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("agent_id = ?", "agent-1").Count(&count).Error)
	assert.Equal(t, int64(1), count, "a deduplicated repeat must not record a second transaction")
}

func TestExecuteTradeAtomic_RejectsBuyOverMaxPositionSize(t *testing.T) {
	db := newTestDB(t)
	cfg := models.AgentConfig{
		AgentID:         "agent-capped",
		DisplayName:     "capped agent",
		ModelIdentifier: "gpt-4o-mini",
		Instructions:    "trade well",
		InitialFunds:    decimal.NewFromInt(1000000),
		CashBalance:     decimal.NewFromInt(1000000),
		MaxTurns:        8,
		DefaultMode:     models.ModeTrading,
		InvestmentPreferences: models.InvestmentPreferences{
			MaxPositionSizePct: decimal.NewFromInt(10),
		},
	}
	require.NoError(t, db.Create(&cfg).Error)

	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(500), Fee: decimal.Zero}},
	}

	// 1000 shares at 500 = 500,000, well above 10% of the 1,000,000 portfolio.
	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-capped", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "too big",
	})
	require.Error(t, err)
	assert.Equal(t, trading.ErrValidation, trading.KindOf(err))

	var cashAfter models.AgentConfig
	require.NoError(t, db.Where("agent_id = ?", "agent-capped").First(&cashAfter).Error)
	assert.True(t, cashAfter.CashBalance.Equal(decimal.NewFromInt(1000000)), "a rejected order must not touch cash")

	var txCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("agent_id = ?", "agent-capped").Count(&txCount).Error)
	assert.Zero(t, txCount)
}

func TestExecuteTradeAtomic_AllowsBuyWithinMaxPositionSize(t *testing.T) {
	db := newTestDB(t)
	cfg := models.AgentConfig{
		AgentID:         "agent-capped",
		DisplayName:     "capped agent",
		ModelIdentifier: "gpt-4o-mini",
		Instructions:    "trade well",
		InitialFunds:    decimal.NewFromInt(1000000),
		CashBalance:     decimal.NewFromInt(1000000),
		MaxTurns:        8,
		DefaultMode:     models.ModeTrading,
		InvestmentPreferences: models.InvestmentPreferences{
			MaxPositionSizePct: decimal.NewFromInt(10),
		},
	}
	require.NoError(t, db.Create(&cfg).Error)

	gw := market.NewStubGateway()
	gw.BuyResponses = []market.ScriptedResponse{
		{Result: &market.ExecutionResult{ExecutedPrice: decimal.NewFromInt(50), Fee: decimal.Zero}},
	}

	// 1000 shares at 50 = 50,000, within 10% of the 1,000,000 portfolio.
	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "agent-capped", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "within cap",
	})
	require.NoError(t, err)

	var holding models.Holding
	require.NoError(t, db.Where("agent_id = ? AND ticker = ?", "agent-capped", "2330").First(&holding).Error)
	assert.Equal(t, int64(1000), holding.Quantity)
}

func TestExecuteTradeAtomic_UnknownAgentIsAnError(t *testing.T) {
	db := newTestDB(t)
	gw := market.NewStubGateway()

	_, err := trading.ExecuteTradeAtomic(context.Background(), db, gw, nil, trading.TradeRequest{
		AgentID: "nobody", SessionID: uuid.New(), Ticker: "2330", Action: models.ActionBuy,
		Quantity: 1000, DecisionReason: "test",
	})
	require.Error(t, err)
	assert.Equal(t, trading.ErrAgentNotFound, trading.KindOf(err))
}
