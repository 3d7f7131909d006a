package service

import (
	"context"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/logger"
	"kassa/internal/metrics"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// InventoryService is the mutation gate: every counter write on the success
// path of a sale goes through one of its two entry points.
type InventoryService struct {
	events    EventStore
	orders    OrderStore
	snapshots SnapshotCache
	publisher Publisher
}

func NewInventoryService(events EventStore, orders OrderStore, snapshots SnapshotCache, publisher Publisher) *InventoryService {
	return &InventoryService{
		events:    events,
		orders:    orders,
		snapshots: snapshots,
		publisher: publisher,
	}
}

// FinalizeSale is the strong path: ledger insert and counter decrement in
// one row-locked transaction. Oversell is rejected outright here, not
// clamped.
func (s *InventoryService) FinalizeSale(ctx context.Context, params repository.SaleParams) (*repository.FinalizeResult, error) {
	if params.Quantity <= 0 {
		metrics.SalesRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, apperrors.ErrInvalidQuantity
	}

	result, err := s.orders.FinalizeSale(ctx, params)
	if err != nil {
		switch err {
		case apperrors.ErrDuplicateSale:
			metrics.DuplicateSalesTotal.Inc()
			logger.WithContext(ctx).Info("Duplicate sale skipped",
				"event_id", params.EventID, "session_id", deref(params.SessionID))
		case apperrors.ErrSoldOut:
			metrics.SalesRejectedTotal.WithLabelValues("sold_out").Inc()
		case apperrors.ErrInsufficientTickets:
			metrics.SalesRejectedTotal.WithLabelValues("insufficient").Inc()
		}
		return nil, err
	}

	s.settled(ctx, params.EventID, result.OrderID, params.Quantity, params.Channel,
		result.TicketsRemaining, result.SoldOut)

	return result, nil
}

// ApplyCompletedSale is the gate-only path for ledger rows that were
// finalized outside FinalizeSale. The decrement is a single atomic UPDATE
// clamped at zero; no rejection happens at this layer, drift beyond the
// clamp is reconciliation's job.
func (s *InventoryService) ApplyCompletedSale(ctx context.Context, eventID int64, quantity int) (*repository.SaleProjection, error) {
	if quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	proj, err := s.events.ApplyCompletedSale(ctx, eventID, quantity)
	if err != nil {
		return nil, err
	}

	if proj.Clamped {
		metrics.ClampedDecrementsTotal.Inc()
		logger.WithEventID(eventID).Warn("Counter decrement clamped at zero, projection drifted from ledger",
			"quantity", quantity)
	}

	s.settled(ctx, eventID, 0, quantity, models.ChannelOnline, proj.TicketsRemaining, proj.SoldOut)

	return proj, nil
}

// settled runs the shared post-write bookkeeping: cache invalidation,
// metrics and domain events.
func (s *InventoryService) settled(ctx context.Context, eventID, orderID int64, quantity int, channel string, remaining int, soldOut bool) {
	if s.snapshots != nil {
		if err := s.snapshots.InvalidateInventory(ctx, eventID); err != nil {
			logger.WithContext(ctx).Warn("Failed to invalidate inventory snapshot",
				"error", err, "event_id", eventID)
		}
	}

	metrics.SalesTotal.WithLabelValues(channel).Inc()

	if s.publisher == nil {
		return
	}

	sold := models.TicketSoldEvent{
		OrderID:          orderID,
		EventID:          eventID,
		Quantity:         quantity,
		Channel:          channel,
		TicketsRemaining: remaining,
		Timestamp:        time.Now(),
	}
	if err := s.publisher.Publish(models.EventTicketSold, sold); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket sold event",
			"error", err, "event_id", eventID, "event_type", models.EventTicketSold)
	}

	if soldOut {
		out := models.SoldOutEvent{EventID: eventID, Timestamp: time.Now()}
		if err := s.publisher.Publish(models.EventSoldOut, out); err != nil {
			logger.WithContext(ctx).Error("Failed to publish sold out event",
				"error", err, "event_id", eventID, "event_type", models.EventSoldOut)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
