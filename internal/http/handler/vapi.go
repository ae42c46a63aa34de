package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicedesk.app/server/internal/http/dto"
	"voicedesk.app/server/internal/http/middleware"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/vapi"
)

const resultRequestFailed = "Error processing request"

// VapiHandler serves the voice API's server messages and the assistant admin proxy.
type VapiHandler struct {
	dispatcher service.FunctionDispatcher
	inbound    service.InboundService
	vapi       vapi.Client
}

// NewVapiHandler accepts a nil client; the admin proxy then answers 503.
func NewVapiHandler(dispatcher service.FunctionDispatcher, inbound service.InboundService, vapiClient vapi.Client) *VapiHandler {
	return &VapiHandler{
		dispatcher: dispatcher,
		inbound:    inbound,
		vapi:       vapiClient,
	}
}

// Functions answers a function-call server message. The reply is always a
// {result} the assistant can speak.
func (h *VapiHandler) Functions(c *gin.Context) {
	ctx := c.Request.Context()

	var envelope vapi.ServerMessageEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		slog.ErrorContext(ctx, "failed to read server message", "error", err)
		c.JSON(http.StatusInternalServerError, dto.FunctionResultResponse{
			Result: resultRequestFailed,
			Error:  err.Error(),
		})
		return
	}

	in := service.FunctionCallInput{
		Message:     envelope.Message,
		PathAgentID: c.Param("agent_id"),
	}
	if user := middleware.GetUser(ctx); user != nil {
		userID := user.ID
		in.SessionUser = &userID
	}

	c.JSON(http.StatusOK, dto.FunctionResultResponse{Result: h.dispatcher.Dispatch(ctx, in)})
}

// Inbound hands the voice API an assistant for a phone call. It never fails.
func (h *VapiHandler) Inbound(c *gin.Context) {
	ctx := c.Request.Context()

	var req vapi.InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "unreadable inbound request, routing as unknown caller", "error", err)
	}

	c.JSON(http.StatusOK, vapi.InboundResponse{Assistant: h.inbound.AssistantFor(ctx, req.CallerNumber())})
}

func (h *VapiHandler) GetAssistant(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	assistant, err := h.vapi.GetAssistant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeVapiError(c, err, "failed to fetch assistant")
		return
	}

	c.JSON(http.StatusOK, assistant)
}

func (h *VapiHandler) UpdateAssistant(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req dto.UpdateAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assistant, err := h.vapi.UpdateAssistant(c.Request.Context(), c.Param("id"), req.ToUpdate())
	if err != nil {
		h.writeVapiError(c, err, "failed to update assistant")
		return
	}

	c.JSON(http.StatusOK, assistant)
}

func (h *VapiHandler) DeleteAssistant(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	if err := h.vapi.DeleteAssistant(c.Request.Context(), c.Param("id")); err != nil {
		h.writeVapiError(c, err, "failed to delete assistant")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *VapiHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()
	if !h.configured(c) {
		return
	}

	var req dto.ValidateAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidateAssistantResponse{Error: "assistantId is required"})
		return
	}

	assistant, err := h.vapi.GetAssistant(ctx, req.AssistantID)
	if err != nil {
		if errors.Is(err, vapi.ErrAssistantNotFound) {
			c.JSON(http.StatusNotFound, dto.ValidateAssistantResponse{Error: "Assistant not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to validate assistant", "error", err, "assistant_id", req.AssistantID)
		c.JSON(http.StatusInternalServerError, dto.ValidateAssistantResponse{Error: "failed to validate assistant"})
		return
	}

	c.JSON(http.StatusOK, dto.ValidateAssistantResponse{
		Valid:     true,
		Assistant: dto.ToAssistantSummary(assistant),
	})
}

func (h *VapiHandler) configured(c *gin.Context) bool {
	if h.vapi == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapi not configured"})
		return false
	}
	return true
}

func (h *VapiHandler) writeVapiError(c *gin.Context, err error, msg string) {
	if errors.Is(err, vapi.ErrAssistantNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "assistant not found"})
		return
	}
	slog.ErrorContext(c.Request.Context(), msg, "error", err, "assistant_id", c.Param("id"))

	var apiErr *vapi.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		c.JSON(apiErr.StatusCode, gin.H{"error": msg, "details": apiErr.Body})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": msg})
}
