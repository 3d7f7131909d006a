package service

import (
	"context"
	"time"

	"kassa/internal/database"
	"kassa/internal/logger"
	"kassa/internal/metrics"
	"kassa/internal/models"
)

// ReconcileService recomputes the counter projection from the order ledger
// and repairs it when it has drifted. It is the designated recovery path
// whenever a ledger row bypassed the mutation gate or a clamped decrement
// lost information.
type ReconcileService struct {
	events    EventStore
	orders    OrderStore
	snapshots SnapshotCache
	publisher Publisher
	retry     database.RetryPolicy
}

func NewReconcileService(events EventStore, orders OrderStore, snapshots SnapshotCache, publisher Publisher, retry database.RetryPolicy) *ReconcileService {
	return &ReconcileService{
		events:    events,
		orders:    orders,
		snapshots: snapshots,
		publisher: publisher,
		retry:     retry,
	}
}

// Reconcile recomputes correct_remaining = max(0, total - sold) and
// overwrites the projection when it disagrees. Idempotent: a second run with
// no new orders reports the same value and no correction. With dryRun the
// would-be correction is reported but nothing is written.
func (s *ReconcileService) Reconcile(ctx context.Context, eventID int64, dryRun bool) (*models.ReconcileResponse, error) {
	metrics.ReconciliationRunsTotal.Inc()

	var resp *models.ReconcileResponse
	err := s.retry.Do(ctx, "reconcile", func(ctx context.Context) error {
		var err error
		resp, err = s.reconcileOnce(ctx, eventID, dryRun)
		return err
	})
	if err != nil {
		return &models.ReconcileResponse{Success: false}, err
	}

	return resp, nil
}

func (s *ReconcileService) reconcileOnce(ctx context.Context, eventID int64, dryRun bool) (*models.ReconcileResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	sold, err := s.orders.SumCompleted(ctx, eventID)
	if err != nil {
		return nil, err
	}

	correctRemaining := event.TicketsTotal - sold
	if correctRemaining < 0 {
		correctRemaining = 0
	}
	correctSoldOut := correctRemaining == 0

	corrected := correctRemaining != event.TicketsRemaining || correctSoldOut != event.SoldOut
	if !corrected {
		return &models.ReconcileResponse{
			Success:          true,
			TicketsRemaining: correctRemaining,
			Corrected:        false,
		}, nil
	}

	logger.WithEventID(eventID).Warn("Projection drifted from ledger",
		"tickets_total", event.TicketsTotal,
		"sold", sold,
		"projected_remaining", event.TicketsRemaining,
		"correct_remaining", correctRemaining,
		"dry_run", dryRun)

	if dryRun {
		return &models.ReconcileResponse{
			Success:          true,
			TicketsRemaining: correctRemaining,
			Corrected:        true,
		}, nil
	}

	// Both projection fields move in one UPDATE, so a failed repair leaves
	// the old projection fully intact.
	if err := s.events.RepairProjection(ctx, eventID, correctRemaining, correctSoldOut); err != nil {
		return nil, err
	}

	metrics.ReconciliationCorrectionsTotal.Inc()

	if s.snapshots != nil {
		if err := s.snapshots.InvalidateInventory(ctx, eventID); err != nil {
			logger.WithContext(ctx).Warn("Failed to invalidate inventory snapshot",
				"error", err, "event_id", eventID)
		}
	}

	if s.publisher != nil {
		repaired := models.InventoryReconciledEvent{
			EventID:          eventID,
			TicketsRemaining: correctRemaining,
			PreviousValue:    event.TicketsRemaining,
			Corrected:        true,
			Timestamp:        time.Now(),
		}
		if err := s.publisher.Publish(models.EventInventoryReconciled, repaired); err != nil {
			logger.WithContext(ctx).Error("Failed to publish reconciled event",
				"error", err, "event_id", eventID, "event_type", models.EventInventoryReconciled)
		}
	}

	return &models.ReconcileResponse{
		Success:          true,
		TicketsRemaining: correctRemaining,
		Corrected:        true,
	}, nil
}

// ReconcileAll sweeps every event. Used by the scheduled backstop job.
func (s *ReconcileService) ReconcileAll(ctx context.Context) error {
	events, err := s.events.List(ctx)
	if err != nil {
		return err
	}

	for _, event := range events {
		if _, err := s.Reconcile(ctx, event.ID, false); err != nil {
			logger.WithEventID(event.ID).Error("Reconciliation sweep failed for event", "error", err)
		}
	}

	return nil
}
