package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/casualtrader/engine/internal/api/controllers"
	"github.com/casualtrader/engine/internal/api/routes"
	"github.com/casualtrader/engine/internal/config"
	"github.com/casualtrader/engine/internal/database"
	"github.com/casualtrader/engine/internal/eventbus"
	"github.com/casualtrader/engine/internal/llm"
	"github.com/casualtrader/engine/internal/logger"
	"github.com/casualtrader/engine/internal/repositories"
	"github.com/casualtrader/engine/internal/services"
	"github.com/casualtrader/engine/internal/telemetry"
	"github.com/casualtrader/engine/internal/trading"
	"github.com/casualtrader/engine/internal/trading/connectors"
	"github.com/casualtrader/engine/internal/trading/market"
	"github.com/casualtrader/engine/internal/trading/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("db connection failed: ", err)
	}
	if err := database.AutoMigrateAll(db); err != nil {
		log.Fatal("migration failed: ", err)
	}

	zl := logger.NewLogger("casualtrader-engine", db, cfg.LogLevel)
	logger.SetGlobalLogger(zl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, err := telemetry.Setup(ctx, "casualtrader-engine")
	if err != nil {
		log.Fatal("telemetry setup failed: ", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	eb := eventbus.NewEventBusWithRedis(cfg.RedisAddr)
	logger.NewAuditLogger(db, eb, zl).Start()

	agentRepo := repositories.NewAgentRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	memoryRepo := repositories.NewMemoryRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)

	memoryStore := memory.NewStore(memoryRepo, memory.DefaultRetention())
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey)

	gatewayFor := func() market.Gateway {
		return market.NewHTTPGateway(cfg.MarketGatewayBaseURL)
	}

	connectorGateway := connectors.NewHTTPGateway(cfg.WebSearchBaseURL, cfg.WebConnectorBaseURL, cfg.CodeInterpreterBaseURL)

	registry := trading.NewRegistry(llmClient, "gpt-4o-mini", gatewayFor)
	cycleRunner := trading.NewCycleRunner(db, agentRepo, sessionRepo, holdingRepo, memoryStore, registry, llmClient, gatewayFor, connectorGateway, eb)
	lifecycle := trading.NewLifecycleManager(cycleRunner, cfg.MaxConcurrentExecutions)

	snapshotScheduler := trading.NewSnapshotScheduler(db, agentRepo)
	if err := snapshotScheduler.Start("*/15 * * * *"); err != nil {
		logger.Error("failed to start snapshot scheduler", err)
	}
	defer snapshotScheduler.Stop()

	agentService := services.NewAgentService(agentRepo, lifecycle)
	executionService := services.NewExecutionService(lifecycle, ctx)
	portfolioService := services.NewPortfolioService(holdingRepo, transactionRepo, snapshotRepo, sessionRepo)

	routerControllers := routes.Controllers{
		Agent:     controllers.NewAgentController(agentService),
		Execution: controllers.NewExecutionController(executionService),
		Portfolio: controllers.NewPortfolioController(portfolioService),
		Market:    controllers.NewMarketController(gatewayFor),
		Stream:    controllers.NewStreamController(eb),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	routes.RegisterV1Routes(r, routerControllers)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatal("server forced to shutdown: ", err)
	}
	log.Println("server exiting")
}
