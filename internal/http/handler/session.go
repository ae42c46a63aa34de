package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/callsession"
)

const streamBlock = 25 * time.Second

// CallSessions is the part of the session hub the HTTP layer drives.
type CallSessions interface {
	Open(ctx context.Context, userID, agentID int64) (callsession.Snapshot, error)
	Snapshot(ctx context.Context, userID int64, sessionID string) (callsession.Snapshot, error)
	Start(ctx context.Context, userID int64, sessionID string) (*callsession.StartConfig, error)
	Apply(ctx context.Context, userID int64, sessionID string, ev callsession.Event) (*callsession.EventResult, error)
	Stop(ctx context.Context, userID int64, sessionID string) (callsession.Snapshot, error)
	Stream(ctx context.Context, userID int64, sessionID, afterID string, block time.Duration) ([]callsession.StreamEntry, error)
	Close(ctx context.Context, userID int64, sessionID string) error
}

type SessionHandler struct {
	sessions CallSessions
}

func NewSessionHandler(sessions CallSessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Open(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	snap, err := h.sessions.Open(c.Request.Context(), user.ID, agentID)
	if err != nil {
		writeError(c, err, "failed to open call session")
		return
	}

	c.JSON(http.StatusCreated, snap)
}

func (h *SessionHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	snap, err := h.sessions.Snapshot(c.Request.Context(), user.ID, c.Param("sid"))
	if err != nil {
		writeError(c, err, "failed to read call session")
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := sessionContext(c)

	cfg, err := h.sessions.Start(ctx, user.ID, c.Param("sid"))
	if err != nil {
		writeError(c, err, "failed to start call")
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Events relays one web SDK callback. Function calls answer with {result}.
func (h *SessionHandler) Events(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := sessionContext(c)

	var ev callsession.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		slog.WarnContext(ctx, "invalid session event", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.sessions.Apply(ctx, user.ID, c.Param("sid"), ev)
	if err != nil {
		writeError(c, err, "failed to apply session event")
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *SessionHandler) Stop(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	snap, err := h.sessions.Stop(sessionContext(c), user.ID, c.Param("sid"))
	if err != nil {
		writeError(c, err, "failed to stop call")
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.sessions.Close(sessionContext(c), user.ID, c.Param("sid")); err != nil {
		writeError(c, err, "failed to close call session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Stream pushes session transitions as server-sent events until the client
// goes away or the session is closed.
func (h *SessionHandler) Stream(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := sessionContext(c)
	sessionID := c.Param("sid")

	if _, err := h.sessions.Snapshot(ctx, user.ID, sessionID); err != nil {
		writeError(c, err, "failed to read call session")
		return
	}

	lastID := c.GetHeader("Last-Event-ID")
	if lastID == "" {
		lastID = c.Query("last_id")
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)

	sseWrite(c.Writer, "", "ping", "ready")
	flusher.Flush()

	for {
		if ctx.Err() != nil {
			return
		}

		entries, err := h.sessions.Stream(ctx, user.ID, sessionID, lastID, streamBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, callsession.ErrSessionNotFound) {
				sseWrite(c.Writer, "", "closed", gin.H{"session_id": sessionID})
				flusher.Flush()
				return
			}
			slog.WarnContext(ctx, "session stream read failed", "error", err)
			sseWrite(c.Writer, "", "error", gin.H{"error": "stream read failed"})
			flusher.Flush()
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if len(entries) == 0 {
			sseWrite(c.Writer, "", "ping", time.Now().UTC().Format(time.RFC3339Nano))
			flusher.Flush()
			continue
		}

		for _, entry := range entries {
			lastID = entry.ID
			sseWrite(c.Writer, entry.ID, "transition", entry)
		}
		flusher.Flush()
	}
}

func sessionContext(c *gin.Context) context.Context {
	sessionID := c.Param("sid")
	return logger.WithLogFields(c.Request.Context(), logger.LogFields{CallSessionID: &sessionID})
}
