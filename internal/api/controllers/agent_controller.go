package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casualtrader/engine/internal/api/dto"
	service "github.com/casualtrader/engine/internal/interfaces/service"
	"github.com/casualtrader/engine/internal/models"
)

type AgentController struct {
	Service service.AgentService
}

func NewAgentController(s service.AgentService) *AgentController {
	return &AgentController{Service: s}
}

// @Summary Create agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body dto.CreateAgentRequest true "Agent definition"
// @Success 201 {object} models.AgentConfig
// @Router /agents [post]
func (c *AgentController) Create(ctx *gin.Context) {
	var req dto.CreateAgentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := models.ExecutionMode(req.DefaultMode)
	if mode == "" {
		mode = models.ModeTrading
	}

	cfg := &models.AgentConfig{
		AgentID:                req.AgentID,
		DisplayName:            req.DisplayName,
		ModelIdentifier:        req.ModelIdentifier,
		Instructions:           req.Instructions,
		AdditionalInstructions: req.AdditionalInstructions,
		InitialFunds:           req.InitialFunds,
		MaxTurns:               req.MaxTurns,
		DefaultMode:            mode,
		InvestmentPreferences: models.InvestmentPreferences{
			RiskTolerance:      models.RiskTolerance(req.RiskTolerance),
			StrategyType:       req.StrategyType,
			PreferredSectors:   models.StringSet(req.PreferredSectors),
			ExcludedSymbols:    models.StringSet(req.ExcludedSymbols),
			MaxPositionSizePct: req.MaxPositionSizePct,
		},
		EnabledTools: models.EnabledTools(req.EnabledTools),
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 8
	}

	if err := c.Service.Create(cfg); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, cfg)
}

// @Summary Get agent
// @Tags Agents
// @Produce json
// @Param agentID path string true "Agent ID"
// @Success 200 {object} models.AgentConfig
// @Router /agents/{agentID} [get]
func (c *AgentController) Get(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	cfg, err := c.Service.Get(agentID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cfg)
}

// @Summary List agents
// @Tags Agents
// @Produce json
// @Success 200 {array} models.AgentConfig
// @Router /agents [get]
func (c *AgentController) List(ctx *gin.Context) {
	agents, err := c.Service.List()
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, agents)
}

// @Summary Update agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param agentID path string true "Agent ID"
// @Param request body dto.UpdateAgentRequest true "Agent patch"
// @Success 200 {object} models.AgentConfig
// @Router /agents/{agentID} [put]
func (c *AgentController) Update(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	var req dto.UpdateAgentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := &models.AgentConfig{
		AgentID:                agentID,
		DisplayName:            req.DisplayName,
		ModelIdentifier:        req.ModelIdentifier,
		Instructions:           req.Instructions,
		AdditionalInstructions: req.AdditionalInstructions,
		MaxTurns:               req.MaxTurns,
		DefaultMode:            models.ExecutionMode(req.DefaultMode),
		InvestmentPreferences: models.InvestmentPreferences{
			RiskTolerance:      models.RiskTolerance(req.RiskTolerance),
			StrategyType:       req.StrategyType,
			PreferredSectors:   models.StringSet(req.PreferredSectors),
			ExcludedSymbols:    models.StringSet(req.ExcludedSymbols),
			MaxPositionSizePct: req.MaxPositionSizePct,
		},
		EnabledTools: models.EnabledTools(req.EnabledTools),
	}

	if err := c.Service.Update(agentID, cfg); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cfg)
}

// @Summary Delete agent
// @Tags Agents
// @Param agentID path string true "Agent ID"
// @Success 204
// @Router /agents/{agentID} [delete]
func (c *AgentController) Delete(ctx *gin.Context) {
	agentID := ctx.Param("agentID")
	if err := c.Service.Delete(agentID); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
