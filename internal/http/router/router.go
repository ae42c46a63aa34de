package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voicedesk.app/server/internal/http/handler"
	"voicedesk.app/server/internal/http/middleware"
	"voicedesk.app/server/internal/service"
)

type RouterConfig struct {
	IsProduction  bool
	WebhookSecret string
	// Ready is probed by /api/v1/health. Nil means always ready.
	Ready func(ctx context.Context) error
}

func SetupRoutes(router *gin.Engine, services *service.Services, sessions handler.CallSessions, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authService := services.Auth()
	requireAuth := middleware.RequireAuth(authService)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", readiness(cfg.Ready))

		authHandler := handler.NewAuthHandler(authService, cfg.IsProduction)
		AuthRouter(v1.Group("/auth"), authHandler)

		agentHandler := handler.NewAgentHandler(services.Agents(), services.History(), services.PhoneBindings())
		sessionHandler := handler.NewSessionHandler(sessions)
		AgentRouter(v1.Group("/agents", requireAuth), agentHandler, sessionHandler)
		SessionRouter(v1.Group("/sessions", requireAuth), sessionHandler)

		vapiHandler := handler.NewVapiHandler(services.Dispatcher(), services.Inbound(), services.Vapi())
		VapiRouter(v1.Group("/vapi"), vapiHandler, middleware.OptionalAuth(authService), requireAuth, middleware.RequireWebhookSecret(cfg.WebhookSecret))

		webhookHandler := handler.NewWebhookHandler(services.Forwarder())
		WebhookRouter(v1.Group("/webhook"), webhookHandler)
	}
}

func readiness(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
