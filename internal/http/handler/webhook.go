package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicedesk.app/server/internal/http/dto"
	"voicedesk.app/server/internal/service"
)

type WebhookHandler struct {
	forwarder service.WorkflowForwarder
}

func NewWebhookHandler(forwarder service.WorkflowForwarder) *WebhookHandler {
	return &WebhookHandler{forwarder: forwarder}
}

// N8N relays a free-form request to the generic workflow and returns its answer.
func (h *WebhookHandler) N8N(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.N8NWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var agentContext json.RawMessage
	if req.AgentContext != nil {
		raw, err := json.Marshal(req.AgentContext)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agentContext"})
			return
		}
		agentContext = raw
	}

	result, err := h.forwarder.Forward(ctx, service.ForwardInput{
		UserMessage:    req.UserMessage,
		AgentID:        req.AgentID,
		ConversationID: req.ConversationID,
		AgentContext:   agentContext,
	})
	if err != nil {
		slog.ErrorContext(ctx, "workflow relay failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"response": service.ForwardFailed})
		return
	}

	c.JSON(http.StatusOK, result)
}
