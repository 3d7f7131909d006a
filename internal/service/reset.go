package service

import (
	"context"
	"log/slog"
)

// ResetService restores the pristine state for test harnesses: the ledger is
// wiped and every counter goes back to full capacity. Not reachable from any
// sale channel.
type ResetService struct {
	events    EventStore
	orders    OrderStore
	snapshots SnapshotCache
}

func NewResetService(events EventStore, orders OrderStore, snapshots SnapshotCache) *ResetService {
	return &ResetService{
		events:    events,
		orders:    orders,
		snapshots: snapshots,
	}
}

// ResetDatabase removes all orders and restores counters to capacity
func (s *ResetService) ResetDatabase(ctx context.Context) error {
	slog.Info("Starting database reset")

	if err := s.orders.DeleteAll(ctx); err != nil {
		slog.Error("Failed to delete all orders", "error", err)
		return err
	}
	slog.Info("All orders deleted successfully")

	if err := s.events.RestoreAllCounters(ctx); err != nil {
		slog.Error("Failed to restore event counters", "error", err)
		return err
	}
	slog.Info("All counters restored to capacity")

	if s.snapshots != nil {
		events, err := s.events.List(ctx)
		if err != nil {
			slog.Error("Failed to list events for cache invalidation", "error", err)
			return err
		}
		for _, event := range events {
			if err := s.snapshots.InvalidateInventory(ctx, event.ID); err != nil {
				slog.Warn("Failed to invalidate inventory snapshot", "error", err, "event_id", event.ID)
			}
		}
	}

	slog.Info("Database reset completed successfully")
	return nil
}
