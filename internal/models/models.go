package models

// Webhook event types accepted from the payment gateway. Anything else is
// acknowledged and ignored explicitly.
const (
	WebhookCheckoutCompleted = "checkout.completed"
)

// PaymentWebhookPayload - модель для webhook уведомлений от платежного шлюза.
// Payload is a tagged variant keyed on Type; Data is only decoded for known
// types.
type PaymentWebhookPayload struct {
	Type      string               `json:"type" binding:"required"`
	Timestamp string               `json:"timestamp"`
	Data      *CheckoutCompletedData `json:"data"`
}

// CheckoutCompletedData carries the checkout.completed case of the webhook.
// SessionID is the idempotency key for the ledger insert.
type CheckoutCompletedData struct {
	EventID   int64  `json:"event_id"`
	Quantity  int    `json:"quantity"`
	SessionID string `json:"session_id"`
	PaymentID string `json:"payment_id"`
}

// CreateEventRequest - модель для создания события
type CreateEventRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  *string `json:"description,omitempty"`
	TicketsTotal int     `json:"tickets_total" binding:"min=0"`
}

// CreateEventResponse - модель ответа при создании события
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// EventResponse mirrors the projection fields of an event.
type EventResponse struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	TicketsTotal     int    `json:"tickets_total"`
	TicketsRemaining int    `json:"tickets_remaining"`
	SoldOut          bool   `json:"sold_out"`
}

// BoxOfficeSaleRequest - модель для продажи билетов в кассе
type BoxOfficeSaleRequest struct {
	EventID  int64 `json:"event_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required"`
}

// BoxOfficeSaleResponse returns the ledger entry id and the settled counter.
type BoxOfficeSaleResponse struct {
	OrderID          int64 `json:"order_id"`
	TicketsRemaining int   `json:"tickets_remaining"`
	SoldOut          bool  `json:"sold_out"`
}

// SetInventoryRequest - модель для административной правки счетчиков.
// Values are written verbatim; sold_out is always recomputed.
type SetInventoryRequest struct {
	TicketsTotal     int `json:"tickets_total" binding:"min=0"`
	TicketsRemaining int `json:"tickets_remaining" binding:"min=0"`
}

// ReconcileResponse reports the outcome of a reconciliation run.
type ReconcileResponse struct {
	Success          bool `json:"success"`
	TicketsRemaining int  `json:"ticketsRemaining"`
	Corrected        bool `json:"corrected"`
}

// InventorySnapshot is the cached read model of an event's counters.
type InventorySnapshot struct {
	TicketsRemaining int  `json:"tickets_remaining"`
	SoldOut          bool `json:"sold_out"`
}
