package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/casualtrader/engine/internal/api/controllers"
	"github.com/casualtrader/engine/internal/middleware"
)

// Controllers bundles every HTTP controller RegisterV1Routes needs —
// assembled once in cmd/casualtrader-server/main.go and handed in so
// route wiring stays a pure function of already-constructed dependencies.
type Controllers struct {
	Agent     *controllers.AgentController
	Execution *controllers.ExecutionController
	Portfolio *controllers.PortfolioController
	Market    *controllers.MarketController
	Stream    *controllers.StreamController
}

// RegisterV1Routes mounts the full REST + WebSocket surface under /api/v1,
// guarded by the same JWT + rate-limit middleware chain the rest of the
// platform uses.
func RegisterV1Routes(router *gin.Engine, c Controllers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", func(ctx *gin.Context) { ctx.Status(200) })

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(), middleware.RateLimiter(120, time.Minute))
	{
		agents := v1.Group("/agents")
		agents.POST("", c.Agent.Create)
		agents.GET("", c.Agent.List)
		agents.GET("/:agentID", c.Agent.Get)
		agents.PUT("/:agentID", c.Agent.Update)
		agents.DELETE("/:agentID", c.Agent.Delete)

		agents.POST("/:agentID/start", c.Execution.Start)
		agents.POST("/:agentID/stop", c.Execution.Stop)
		agents.GET("/:agentID/status", c.Execution.Status)

		agents.GET("/:agentID/holdings", c.Portfolio.Holdings)
		agents.GET("/:agentID/transactions", c.Portfolio.Transactions)
		agents.GET("/:agentID/snapshots", c.Portfolio.Snapshots)
		agents.GET("/:agentID/snapshots/latest", c.Portfolio.LatestSnapshot)
		agents.GET("/:agentID/sessions", c.Portfolio.Sessions)

		v1.GET("/sessions/:sessionID/transactions", c.Portfolio.TransactionsBySession)

		v1.GET("/market/quote/:ticker", c.Market.Quote)

		v1.GET("/stream", c.Stream.Handle)
	}
}
