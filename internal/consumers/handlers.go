package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"kassa/internal/models"
	"kassa/internal/service"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	reconcile *service.ReconcileService
}

func NewHandlers(reconcile *service.ReconcileService) *Handlers {
	return &Handlers{
		reconcile: reconcile,
	}
}

// HandleTicketSold audits settled sales. Orders with id 0 came through the
// clamp path, meaning the projection may have drifted; reconcile right away
// instead of waiting for the sweep.
func (h *Handlers) HandleTicketSold(m *stan.Msg) {
	var event models.TicketSoldEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket sold event", "error", err)
		return
	}

	slog.Info("Processing ticket sold event",
		"order_id", event.OrderID,
		"event_id", event.EventID,
		"quantity", event.Quantity,
		"channel", event.Channel,
		"tickets_remaining", event.TicketsRemaining)

	if event.OrderID == 0 {
		ctx := context.Background()
		if _, err := h.reconcile.Reconcile(ctx, event.EventID, false); err != nil {
			slog.Error("Drift-watch reconciliation failed", "event_id", event.EventID, "error", err)
			return
		}
	}

	m.Ack()
}

// HandleSoldOut logs sold-out transitions for downstream notification flows.
func (h *Handlers) HandleSoldOut(m *stan.Msg) {
	var event models.SoldOutEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal sold out event", "error", err)
		return
	}

	slog.Info("Event sold out", "event_id", event.EventID)

	m.Ack()
}

// HandleInventoryReconciled audits repaired projections.
func (h *Handlers) HandleInventoryReconciled(m *stan.Msg) {
	var event models.InventoryReconciledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reconciled event", "error", err)
		return
	}

	slog.Info("Inventory projection repaired",
		"event_id", event.EventID,
		"tickets_remaining", event.TicketsRemaining,
		"previous_value", event.PreviousValue)

	m.Ack()
}
