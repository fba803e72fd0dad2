package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

type SessionHandler struct {
	// appCtx parents the session update loop, which must outlive the
	// request that started it.
	appCtx  context.Context
	tracker *services.SessionTracker
}

func NewSessionHandler(appCtx context.Context, tracker *services.SessionTracker) *SessionHandler {
	return &SessionHandler{
		appCtx:  appCtx,
		tracker: tracker,
	}
}

type sessionResponse struct {
	models.SessionState
	StartFormatted   string `json:"start_formatted"`
	CurrentFormatted string `json:"current_formatted"`
	ProfitFormatted  string `json:"profit_formatted"`
	LastError        string `json:"last_error,omitempty"`
}

func (h *SessionHandler) sessionResponse() sessionResponse {
	state := h.tracker.Snapshot()
	return sessionResponse{
		SessionState:     state,
		StartFormatted:   models.FormatCoins(state.StartValue),
		CurrentFormatted: models.FormatCoins(state.CurrentValue),
		ProfitFormatted:  models.FormatCoins(state.ProfitValue),
		LastError:        h.tracker.LastError(),
	}
}

// GetSession returns the live session state.
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionResponse())
}

type startSessionRequest struct {
	Character string `json:"character" binding:"required"`
}

// StartSession starts a session for a character. Conflicts when one is
// already running.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "character is required"})
		return
	}

	if err := h.tracker.Start(h.appCtx, req.Character); err != nil {
		if errors.Is(err, services.ErrSessionActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "a session is already active, reset it instead"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.sessionResponse())
}

// ResetSession rotates the session: the prior state is exported as a durable
// record and a fresh session starts for the same character.
func (h *SessionHandler) ResetSession(c *gin.Context) {
	export, path, err := h.tracker.Reset(h.appCtx)
	if err != nil {
		if errors.Is(err, services.ErrNoSession) {
			c.JSON(http.StatusConflict, gin.H{"error": "no active session to reset"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "exported": export})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exported": export,
		"file":     path,
		"session":  h.sessionResponse(),
	})
}
