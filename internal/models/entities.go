package models

import (
	"time"
)

// Order statuses. Only completed orders count toward consumed inventory.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Sale channels recorded on the ledger.
const (
	ChannelOnline    = "online"
	ChannelBoxOffice = "box_office"
)

// Event represents an event in the system. TicketsRemaining and SoldOut are
// a projection of the order ledger: remaining = max(0, total - sold).
type Event struct {
	ID               int64     `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Description      *string   `json:"description" db:"description"`
	TicketsTotal     int       `json:"tickets_total" db:"tickets_total"`
	TicketsRemaining int       `json:"tickets_remaining" db:"tickets_remaining"`
	SoldOut          bool      `json:"sold_out" db:"sold_out"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Order represents a ledger entry for a sale attempt. Quantity is immutable
// once created; status may transition pending -> completed/cancelled.
type Order struct {
	ID                int64     `json:"id" db:"id"`
	EventID           int64     `json:"event_id" db:"event_id"`
	Quantity          int       `json:"quantity" db:"quantity"`
	Status            string    `json:"status" db:"status"`
	Channel           string    `json:"channel" db:"channel"`
	ExternalSessionID *string   `json:"external_session_id" db:"external_session_id"`
	PaymentID         *string   `json:"payment_id" db:"payment_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
