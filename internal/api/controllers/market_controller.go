package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casualtrader/engine/internal/trading/market"
)

// MarketController exposes read-only market data for operator tooling —
// it never places orders; that only happens inside a Cycle Runner via the
// execute_trade_atomic tool.
type MarketController struct {
	GatewayFor func() market.Gateway
}

func NewMarketController(gatewayFor func() market.Gateway) *MarketController {
	return &MarketController{GatewayFor: gatewayFor}
}

// @Summary Get a quote
// @Tags Market
// @Produce json
// @Param ticker path string true "Ticker"
// @Success 200 {object} market.Quote
// @Router /market/quote/{ticker} [get]
func (c *MarketController) Quote(ctx *gin.Context) {
	ticker := ctx.Param("ticker")
	gw := c.GatewayFor()
	defer gw.Release()

	quote, err := gw.GetQuote(ctx.Request.Context(), ticker)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, quote)
}
