package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	service "github.com/casualtrader/engine/internal/interfaces/service"
)

type PortfolioController struct {
	Service service.PortfolioService
}

func NewPortfolioController(s service.PortfolioService) *PortfolioController {
	return &PortfolioController{Service: s}
}

// @Summary Get current holdings
// @Tags Portfolio
// @Produce json
// @Param agentID path string true "Agent ID"
// @Success 200 {array} models.Holding
// @Router /agents/{agentID}/holdings [get]
func (c *PortfolioController) Holdings(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	holdings, err := c.Service.Holdings(agentID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, holdings)
}

// @Summary List transactions
// @Tags Portfolio
// @Produce json
// @Param agentID path string true "Agent ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Transaction
// @Router /agents/{agentID}/transactions [get]
func (c *PortfolioController) Transactions(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	limit := queryInt(ctx, "limit", 50)
	offset := queryInt(ctx, "offset", 0)

	txns, err := c.Service.Transactions(agentID, limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, txns)
}

// @Summary List transactions for a single session
// @Tags Portfolio
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {array} models.Transaction
// @Router /sessions/{sessionID}/transactions [get]
func (c *PortfolioController) TransactionsBySession(ctx *gin.Context) {
	sessionID, err := uuid.Parse(ctx.Param("sessionID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	txns, err := c.Service.TransactionsBySession(sessionID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, txns)
}

// @Summary List portfolio snapshots
// @Tags Portfolio
// @Produce json
// @Param agentID path string true "Agent ID"
// @Param limit query int false "Limit"
// @Success 200 {array} models.PortfolioSnapshot
// @Router /agents/{agentID}/snapshots [get]
func (c *PortfolioController) Snapshots(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	limit := queryInt(ctx, "limit", 50)

	snapshots, err := c.Service.Snapshots(agentID, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snapshots)
}

// @Summary Get the latest portfolio valuation
// @Tags Portfolio
// @Produce json
// @Param agentID path string true "Agent ID"
// @Success 200 {object} models.PortfolioSnapshot
// @Router /agents/{agentID}/snapshots/latest [get]
func (c *PortfolioController) LatestSnapshot(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	snapshot, err := c.Service.LatestSnapshot(agentID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, snapshot)
}

// @Summary List execution sessions
// @Tags Portfolio
// @Produce json
// @Param agentID path string true "Agent ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.AgentSession
// @Router /agents/{agentID}/sessions [get]
func (c *PortfolioController) Sessions(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	limit := queryInt(ctx, "limit", 50)
	offset := queryInt(ctx, "offset", 0)

	sessions, err := c.Service.Sessions(agentID, limit, offset)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sessions)
}

func queryInt(ctx *gin.Context, key string, def int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
