package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"kassa/internal/models"

	"github.com/gin-gonic/gin"
)

// Admin handlers

// SetInventory - PUT /api/admin/events/:id/inventory
// Административная правка счетчиков (обходит ledger)
func (h *Handlers) SetInventory(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req models.SetInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Events.SetInventory(c.Request.Context(), eventID, &req)
	if err != nil {
		slog.Error("Failed to set inventory", "error", err, "event_id", eventID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Reconcile - POST /api/admin/events/:id/reconcile
// Пересчитать счетчики по ledger и исправить дрейф
func (h *Handlers) Reconcile(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	dryRun := c.DefaultQuery("dryRun", "false") == "true"

	response, err := h.services.Reconcile.Reconcile(c.Request.Context(), eventID, dryRun)
	if err != nil {
		slog.Error("Reconciliation failed", "error", err, "event_id", eventID)
		status := statusForError(err)
		c.JSON(status, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetDatabase - POST /api/reset
// Сбросить базу данных в начальное состояние (test harness only)
func (h *Handlers) ResetDatabase(c *gin.Context) {
	err := h.services.Reset.ResetDatabase(c.Request.Context())
	if err != nil {
		slog.Error("Failed to reset database", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset database"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Database reset successfully"})
}
