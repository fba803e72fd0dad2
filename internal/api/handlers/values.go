package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

type ValuesHandler struct {
	tracker   *services.SessionTracker
	snapshots *services.SnapshotStore
}

func NewValuesHandler(tracker *services.SessionTracker, snapshots *services.SnapshotStore) *ValuesHandler {
	return &ValuesHandler{
		tracker:   tracker,
		snapshots: snapshots,
	}
}

// GetValues returns the per-category value breakdown from the last valuation
// pass. `?detail=1` adds the per-item breakdown sorted by value.
func (h *ValuesHandler) GetValues(c *gin.Context) {
	state := h.tracker.Snapshot()

	total := state.InventoryValue + state.MaterialsValue + state.Coins
	resp := gin.H{
		"character":           state.Character,
		"inventory_value":     state.InventoryValue,
		"materials_value":     state.MaterialsValue,
		"coins":               state.Coins,
		"total_value":         total,
		"inventory_formatted": models.FormatCoins(state.InventoryValue),
		"materials_formatted": models.FormatCoins(state.MaterialsValue),
		"coins_formatted":     models.FormatCoins(state.Coins),
		"total_formatted":     models.FormatCoins(total),
	}

	if c.Query("detail") == "1" {
		resp["items"] = h.tracker.Detail()
	}

	c.JSON(http.StatusOK, resp)
}

// GetSnapshot returns the last persisted snapshot for a character, which
// survives restarts unlike the live session state.
func (h *ValuesHandler) GetSnapshot(c *gin.Context) {
	character := c.Param("name")
	if character == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "character name is required"})
		return
	}

	snapshot, err := h.snapshots.Get(character)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for character"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot":        snapshot,
		"total_value":     snapshot.TotalValue(),
		"total_formatted": models.FormatCoins(snapshot.TotalValue()),
	})
}
