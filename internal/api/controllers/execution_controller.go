package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casualtrader/engine/internal/api/dto"
	service "github.com/casualtrader/engine/internal/interfaces/service"
	"github.com/casualtrader/engine/internal/models"
	"github.com/casualtrader/engine/internal/trading"
)

type ExecutionController struct {
	Service service.ExecutionService
}

func NewExecutionController(s service.ExecutionService) *ExecutionController {
	return &ExecutionController{Service: s}
}

// @Summary Start an execution cycle
// @Tags Execution
// @Accept json
// @Produce json
// @Param agentID path string true "Agent ID"
// @Param request body dto.StartExecutionRequest true "Mode"
// @Success 202 {object} map[string]string
// @Router /agents/{agentID}/start [post]
func (c *ExecutionController) Start(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	var req dto.StartExecutionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := models.ExecutionMode(req.Mode)
	if !mode.Valid() {
		writeError(ctx, trading.NewError(trading.ErrUnknownMode, "mode must be TRADING or REBALANCING", nil))
		return
	}

	sessionID, err := c.Service.Start(agentID, mode)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"session_id": sessionID.String()})
}

// @Summary Stop a running execution cycle
// @Tags Execution
// @Param agentID path string true "Agent ID"
// @Success 202
// @Router /agents/{agentID}/stop [post]
func (c *ExecutionController) Stop(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	if err := c.Service.Stop(agentID); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusAccepted)
}

// @Summary Get an agent's live execution status
// @Tags Execution
// @Produce json
// @Param agentID path string true "Agent ID"
// @Success 200 {object} trading.AgentStatus
// @Router /agents/{agentID}/status [get]
func (c *ExecutionController) Status(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	ctx.JSON(http.StatusOK, c.Service.Status(agentID))
}
