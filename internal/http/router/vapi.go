package router

import (
	"github.com/gin-gonic/gin"

	"voicedesk.app/server/internal/http/handler"
)

// VapiRouter splits the voice API's own callbacks, which carry the webhook
// secret and maybe a browser session, from the dashboard's admin proxy.
func VapiRouter(rg *gin.RouterGroup, h *handler.VapiHandler, optionalAuth, requireAuth, webhookSecret gin.HandlerFunc) {
	callbacks := rg.Group("", webhookSecret, optionalAuth)
	callbacks.POST("/functions", h.Functions)
	callbacks.POST("/webhook/:agent_id", h.Functions)
	callbacks.POST("/inbound", h.Inbound)

	admin := rg.Group("", requireAuth)
	admin.GET("/assistants/:id", h.GetAssistant)
	admin.PATCH("/assistants/:id", h.UpdateAssistant)
	admin.DELETE("/assistants/:id", h.DeleteAssistant)
	admin.POST("/validate", h.Validate)
}

func WebhookRouter(rg *gin.RouterGroup, h *handler.WebhookHandler) {
	rg.POST("/n8n", h.N8N)
}
