package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"voicedesk.app/server/common/id"
	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/common/otel"
	"voicedesk.app/server/core/config"
	"voicedesk.app/server/core/db"
	"voicedesk.app/server/internal/callsession"
	"voicedesk.app/server/internal/enhance"
	"voicedesk.app/server/internal/http/middleware"
	httprouter "voicedesk.app/server/internal/http/router"
	"voicedesk.app/server/internal/queue"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/vapi"
	"voicedesk.app/server/internal/workflow"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "voicedesk starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	stores := store.NewStores(database.Queries())

	// Redis is optional: without it turns are written inline and session
	// transitions stay in memory.
	var (
		recorder  service.Recorder
		publisher callsession.Publisher
	)
	if cfg.Pipeline.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

		producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, nil)
		defer producer.Close()

		recorder = service.NewQueueRecorder(producer)
		publisher = callsession.NewRedisPublisher(redisClient, cfg.CallSession.StreamMaxLen)
	} else {
		slog.InfoContext(ctx, "redis disabled, recording inline")
	}

	var vapiClient vapi.Client
	if cfg.Vapi.Enabled() {
		vapiClient, err = vapi.NewClient(vapi.Config{
			BaseURL:   cfg.Vapi.BaseURL,
			SecretKey: cfg.Vapi.SecretKey,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create vapi client", "error", err)
			os.Exit(1)
		}
	} else {
		slog.WarnContext(ctx, "vapi secret key not set, agents will not be provisioned")
	}

	enhancer, err := enhance.New(cfg.EnhanceLLM)
	if err != nil {
		if !errors.Is(err, enhance.ErrNotConfigured) {
			slog.ErrorContext(ctx, "failed to create enhancer", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "enhancement disabled (no LLM key configured)")
	}

	workflowClient := workflow.NewClient(workflow.Config{
		AgentResponseURL: cfg.Workflow.AgentResponseURL(),
		AddDocumentsURL:  cfg.Workflow.AddDocumentsURL(),
		ForwardURL:       cfg.Workflow.ForwardEndpoint(),
		Timeout:          cfg.Workflow.Timeout,
	})

	provisioning := service.ProvisioningConfig{
		AppURL:        cfg.AppURL,
		WebhookSecret: cfg.Vapi.WebhookSecret,
	}

	services := service.NewServices(service.Deps{
		Stores:       stores,
		TxRunner:     service.NewTxRunner(database),
		WorkOS:       cfg.WorkOS,
		Vapi:         vapiClient,
		Enhancer:     enhancer,
		Workflow:     workflowClient,
		Recorder:     recorder,
		Provisioning: provisioning,
		WorkflowOn:   cfg.Workflow.Enabled(),
	})

	hubDeps := callsession.Deps{
		Agents:        services.Agents(),
		Conversations: stores.Conversations(),
		Dispatcher:    services.Dispatcher(),
		Recorder:      services.Recorder(),
		Publisher:     publisher,
		Provisioning:  provisioning,
	}
	if vapiClient != nil {
		hubDeps.Calls = vapiClient
	}
	hub := callsession.NewHub(callsession.Config{
		PublicKey:     cfg.Vapi.PublicKey,
		IdleTTL:       cfg.CallSession.IdleTTL,
		ContextWindow: cfg.CallSession.ContextWindow,
	}, hubDeps)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, hub, database)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Session streams stay open; no write deadline.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	stopHub()
	if err := hub.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "call session shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, hub *callsession.Hub, database *db.DB) *gin.Engine {
	router := gin.New()

	// OTel first so Recovery and Logger see the span.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, hub, httprouter.RouterConfig{
		IsProduction:  cfg.IsProduction(),
		WebhookSecret: cfg.Vapi.WebhookSecret,
		Ready:         database.Ping,
	})

	return router
}

const banner = `
 _  _  __  __  ___  ____  ____  ____  ____  __ _
/ )( \/  \(  )/ __)(  __)(    \(  __)/ ___)(  / )
\ \/ (  O ))(( (__  ) _)  ) D ( ) _) \___ \ )  (
 \__/ \__/(__)\___)(____)(____/(____)(____/(__\_)
`
