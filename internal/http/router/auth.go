package router

import (
	"github.com/gin-gonic/gin"

	"voicedesk.app/server/internal/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler) {
	rg.GET("/url", h.GetAuthURL)
	rg.POST("/exchange", h.Exchange)
	rg.GET("/validate", h.ValidateSession)
	rg.POST("/logout", h.Logout)
}
