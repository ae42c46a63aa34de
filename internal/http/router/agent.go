package router

import (
	"github.com/gin-gonic/gin"

	"voicedesk.app/server/internal/http/handler"
)

func AgentRouter(rg *gin.RouterGroup, h *handler.AgentHandler, sessions *handler.SessionHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.POST("/enhance", h.Enhance)
	rg.POST("/enhance-prompt", h.EnhancePrompt)
	rg.POST("/memory", h.Memory)
	rg.GET("/debug", h.Debug)

	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PUT("/:id/phone-number", h.BindPhoneNumber)
	rg.DELETE("/:id/phone-number", h.UnbindPhoneNumber)
	rg.POST("/:id/sessions", sessions.Open)
}

func SessionRouter(rg *gin.RouterGroup, h *handler.SessionHandler) {
	rg.GET("/:sid", h.Get)
	rg.POST("/:sid/start", h.Start)
	rg.POST("/:sid/events", h.Events)
	rg.POST("/:sid/stop", h.Stop)
	rg.GET("/:sid/stream", h.Stream)
	rg.DELETE("/:sid", h.Delete)
}
