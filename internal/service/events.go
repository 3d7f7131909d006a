package service

import (
	"context"
	"fmt"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/logger"
	"kassa/internal/metrics"
	"kassa/internal/models"
)

type EventService struct {
	events    EventStore
	snapshots SnapshotCache
	publisher Publisher
}

func NewEventService(events EventStore, snapshots SnapshotCache, publisher Publisher) *EventService {
	return &EventService{
		events:    events,
		snapshots: snapshots,
		publisher: publisher,
	}
}

func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	if req.TicketsTotal < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	event := &models.Event{
		Title:        req.Title,
		Description:  req.Description,
		TicketsTotal: req.TicketsTotal,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	logger.WithContext(ctx).Info("Event created",
		"event_id", event.ID,
		"tickets_total", event.TicketsTotal)

	return &models.CreateEventResponse{ID: event.ID}, nil
}

func (s *EventService) Get(ctx context.Context, id int64) (*models.EventResponse, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.EventResponse{
		ID:               event.ID,
		Title:            event.Title,
		TicketsTotal:     event.TicketsTotal,
		TicketsRemaining: event.TicketsRemaining,
		SoldOut:          event.SoldOut,
	}, nil
}

func (s *EventService) List(ctx context.Context) ([]models.EventResponse, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]models.EventResponse, len(events))
	for i, event := range events {
		result[i] = models.EventResponse{
			ID:               event.ID,
			Title:            event.Title,
			TicketsTotal:     event.TicketsTotal,
			TicketsRemaining: event.TicketsRemaining,
			SoldOut:          event.SoldOut,
		}
	}

	return result, nil
}

// ValidatePurchase is the advisory pre-flight check before a ledger row is
// created. It reads the cached snapshot when warm; the authoritative check
// happens again under the row lock when the sale finalizes.
func (s *EventService) ValidatePurchase(ctx context.Context, eventID int64, quantity int) error {
	if quantity <= 0 {
		metrics.SalesRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return apperrors.ErrInvalidQuantity
	}

	snap, err := s.snapshot(ctx, eventID)
	if err != nil {
		return err
	}

	if snap.SoldOut {
		metrics.SalesRejectedTotal.WithLabelValues("sold_out").Inc()
		return apperrors.ErrSoldOut
	}
	if quantity > snap.TicketsRemaining {
		metrics.SalesRejectedTotal.WithLabelValues("insufficient").Inc()
		return apperrors.ErrInsufficientTickets
	}

	return nil
}

// SetInventory is the admin direct-edit interface: counters are written
// verbatim and sold_out is recomputed; the ledger is deliberately not
// consulted.
func (s *EventService) SetInventory(ctx context.Context, eventID int64, req *models.SetInventoryRequest) (*models.EventResponse, error) {
	proj, err := s.events.SetInventory(ctx, eventID, req.TicketsTotal, req.TicketsRemaining)
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.InvalidateInventory(ctx, eventID); err != nil {
			logger.WithContext(ctx).Warn("Failed to invalidate inventory snapshot",
				"error", err, "event_id", eventID)
		}
	}

	logger.WithContext(ctx).Info("Admin inventory override applied",
		"event_id", eventID,
		"tickets_total", req.TicketsTotal,
		"tickets_remaining", proj.TicketsRemaining,
		"sold_out", proj.SoldOut)

	if proj.SoldOut && s.publisher != nil {
		event := models.SoldOutEvent{EventID: eventID, Timestamp: time.Now()}
		if err := s.publisher.Publish(models.EventSoldOut, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish sold out event",
				"error", err, "event_id", eventID)
		}
	}

	return &models.EventResponse{
		ID:               eventID,
		TicketsTotal:     req.TicketsTotal,
		TicketsRemaining: proj.TicketsRemaining,
		SoldOut:          proj.SoldOut,
	}, nil
}

// snapshot reads the cached counter or falls back to the store, warming the
// cache on the way out.
func (s *EventService) snapshot(ctx context.Context, eventID int64) (*models.InventorySnapshot, error) {
	if s.snapshots != nil {
		if snap, err := s.snapshots.GetInventory(ctx, eventID); err == nil {
			return snap, nil
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	snap := models.InventorySnapshot{
		TicketsRemaining: event.TicketsRemaining,
		SoldOut:          event.SoldOut,
	}

	if s.snapshots != nil {
		if err := s.snapshots.SetInventory(ctx, eventID, snap); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache inventory snapshot",
				"error", err, "event_id", eventID)
		}
	}

	return &snap, nil
}
