package models

import "time"

// NATS Event Types
const (
	EventTicketSold          = "ticket.sold"
	EventOrderCancelled      = "order.cancelled"
	EventSoldOut             = "event.soldout"
	EventInventoryReconciled = "inventory.reconciled"
	EventWebhookIgnored      = "webhook.ignored"
)

// TicketSoldEvent represents a finalized sale that settled on the projection
type TicketSoldEvent struct {
	OrderID          int64     `json:"order_id"`
	EventID          int64     `json:"event_id"`
	Quantity         int       `json:"quantity"`
	Channel          string    `json:"channel"`
	TicketsRemaining int       `json:"tickets_remaining"`
	Timestamp        time.Time `json:"timestamp"`
}

// OrderCancelledEvent represents a pending order moved to cancelled
type OrderCancelledEvent struct {
	OrderID   int64     `json:"order_id"`
	EventID   int64     `json:"event_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// SoldOutEvent fires when a counter write drives tickets_remaining to zero
type SoldOutEvent struct {
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryReconciledEvent reports a repaired projection
type InventoryReconciledEvent struct {
	EventID          int64     `json:"event_id"`
	TicketsRemaining int       `json:"tickets_remaining"`
	PreviousValue    int       `json:"previous_value"`
	Corrected        bool      `json:"corrected"`
	Timestamp        time.Time `json:"timestamp"`
}

// WebhookIgnoredEvent records a webhook delivery of an unknown type
type WebhookIgnoredEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
