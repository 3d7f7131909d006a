package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "kassa/internal/errors"
	"kassa/internal/models"
	"kassa/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// statusForError maps domain errors onto HTTP statuses. Validation failures
// are client errors and carry the user-facing message verbatim.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound), errors.Is(err, apperrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSoldOut), errors.Is(err, apperrors.ErrInsufficientTickets):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		// Не раскрываем внутренние ошибки клиенту
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Events handlers

// CreateEvent - POST /api/events
// Создать событие
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to create event", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetEvent - GET /api/events/:id
// Получить событие со счетчиками
func (h *Handlers) GetEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	response, err := h.services.Events.Get(c.Request.Context(), eventID)
	if err != nil {
		slog.Error("Failed to get event", "error", err, "event_id", eventID)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListEvents - GET /api/events
// Получить список событий
func (h *Handlers) ListEvents(c *gin.Context) {
	response, err := h.services.Events.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
