package handlers

import (
	"log/slog"
	"net/http"

	"kassa/internal/models"

	"github.com/gin-gonic/gin"
)

// Sale channel handlers

// BoxOfficeSale - POST /api/boxoffice/sales
// Продать билеты в кассе
func (h *Handlers) BoxOfficeSale(c *gin.Context) {
	var req models.BoxOfficeSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Sales.BoxOfficeSale(c.Request.Context(), &req)
	if err != nil {
		slog.Error("Failed to finalize box office sale",
			"error", err, "event_id", req.EventID, "quantity", req.Quantity)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CancelOrder - PATCH /api/orders/cancel
// Отменить необработанный заказ
func (h *Handlers) CancelOrder(c *gin.Context) {
	var req struct {
		OrderID int64  `json:"order_id" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Reason == "" {
		req.Reason = "User cancellation"
	}

	err := h.services.Sales.CancelOrder(c.Request.Context(), req.OrderID, req.Reason)
	if err != nil {
		slog.Error("Failed to cancel order", "error", err, "order_id", req.OrderID)
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// OnPaymentWebhook - POST /api/webhooks/payment
// Принимать уведомления от платежного шлюза
func (h *Handlers) OnPaymentWebhook(c *gin.Context) {
	var payload models.PaymentWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.services.Sales.HandlePaymentWebhook(c.Request.Context(), &payload)
	if err != nil {
		slog.Error("Failed to handle payment webhook", "error", err, "type", payload.Type)
		respondError(c, err)
		return
	}

	// Шлюз ожидает 200 без тела ответа
	c.Status(http.StatusOK)
}
