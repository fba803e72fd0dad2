package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

type PriceHandler struct {
	appCtx    context.Context
	refresher *services.PriceRefresher
}

func NewPriceHandler(appCtx context.Context, refresher *services.PriceRefresher) *PriceHandler {
	return &PriceHandler{
		appCtx:    appCtx,
		refresher: refresher,
	}
}

// GetRefreshStatus returns the bulk-refresher state.
func (h *PriceHandler) GetRefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.refresher.GetStatus())
}

// ForceRefresh kicks off a full trading-post resync regardless of staleness.
// The refresh runs in the background; poll the status endpoint for progress.
func (h *PriceHandler) ForceRefresh(c *gin.Context) {
	go func() {
		if err := h.refresher.Refresh(h.appCtx); err != nil {
			log.Printf("Price refresher: forced refresh failed: %v", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "refresh started"})
}
