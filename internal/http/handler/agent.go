package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/http/dto"
	"voicedesk.app/server/internal/service"
)

type AgentHandler struct {
	agents  service.AgentService
	history service.HistoryService
	phones  service.PhoneBindingService
}

func NewAgentHandler(
	agents service.AgentService,
	history service.HistoryService,
	phones service.PhoneBindingService,
) *AgentHandler {
	return &AgentHandler{
		agents:  agents,
		history: history,
		phones:  phones,
	}
}

func (h *AgentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent, err := h.agents.Create(ctx, user.ID, req.ToModel(), req.Enhance)
	if err != nil {
		writeError(c, err, "failed to create agent")
		return
	}

	c.JSON(http.StatusCreated, dto.ToAgentResponse(agent))
}

func (h *AgentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	agents, err := h.agents.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err, "failed to list agents")
		return
	}

	c.JSON(http.StatusOK, gin.H{"agents": dto.ToAgentResponses(agents)})
}

func (h *AgentHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	agent, err := h.agents.Get(c.Request.Context(), user.ID, agentID)
	if err != nil {
		writeError(c, err, "failed to get agent")
		return
	}

	c.JSON(http.StatusOK, dto.ToAgentResponse(agent))
}

func (h *AgentHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{AgentID: &agentID})
	agent, err := h.agents.Update(ctx, user.ID, agentID, req.ToPatch())
	if err != nil {
		writeError(c, err, "failed to update agent")
		return
	}

	c.JSON(http.StatusOK, dto.ToAgentResponse(agent))
}

func (h *AgentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.agents.Delete(c.Request.Context(), user.ID, agentID); err != nil {
		writeError(c, err, "failed to delete agent")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Enhance returns the merged draft. When enhancement is unavailable the
// service hands back the original draft, so only hard failures surface here.
func (h *AgentHandler) Enhance(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.agents.Enhance(ctx, req.Agent.ToModel())
	if err != nil {
		if errors.Is(err, service.ErrEnhancementFailed) {
			slog.ErrorContext(ctx, "agent enhancement failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enhance agent"})
			return
		}
		writeError(c, err, "failed to enhance agent")
		return
	}

	c.JSON(http.StatusOK, dto.EnhanceResponse{Agent: dto.ToAgentDraft(draft)})
}

func (h *AgentHandler) EnhancePrompt(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.EnhancePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := h.agents.EnhancePrompt(ctx, req.AgentInfo.ToModel())
	if err != nil {
		writeError(c, err, "failed to enhance prompt")
		return
	}

	c.JSON(http.StatusOK, dto.EnhancePromptResponse{EnhancedPrompt: prompt})
}

func (h *AgentHandler) Memory(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.MemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	agentID, err := strconv.ParseInt(req.AgentID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent_id"})
		return
	}

	if _, err := h.agents.Get(ctx, user.ID, agentID); err != nil {
		writeError(c, err, "failed to load memory context")
		return
	}

	memory, err := h.history.Memory(ctx, agentID, user.ID)
	if err != nil {
		writeError(c, err, "failed to load memory context")
		return
	}

	c.JSON(http.StatusOK, dto.MemoryResponse{MemoryContext: memory})
}

func (h *AgentHandler) Debug(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	agents, err := h.agents.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err, "failed to list agents")
		return
	}

	c.JSON(http.StatusOK, dto.ToDebugResponse(agents, h.agents.Status()))
}

func (h *AgentHandler) BindPhoneNumber(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.PhoneNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	binding, err := h.phones.Bind(ctx, user.ID, agentID, req.PhoneNumber)
	if err != nil {
		writeError(c, err, "failed to bind phone number")
		return
	}

	c.JSON(http.StatusOK, dto.ToPhoneBindingResponse(binding))
}

func (h *AgentHandler) UnbindPhoneNumber(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.phones.Unbind(c.Request.Context(), user.ID, agentID); err != nil {
		writeError(c, err, "failed to unbind phone number")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
