package jobs

import (
	"context"
	"log/slog"
	"time"

	"kassa/internal/service"
)

// ReconciliationSweepJob is the scheduled backstop: it periodically
// recomputes every event's counter from the ledger, catching drift left by
// bypassed gates or clamped decrements.
type ReconciliationSweepJob struct {
	reconcile *service.ReconcileService
	interval  time.Duration
	ticker    *time.Ticker
	done      chan bool
}

func NewReconciliationSweepJob(reconcile *service.ReconcileService, interval time.Duration) *ReconciliationSweepJob {
	return &ReconciliationSweepJob{
		reconcile: reconcile,
		interval:  interval,
		done:      make(chan bool),
	}
}

// Start begins the background sweep at the configured interval
func (j *ReconciliationSweepJob) Start(ctx context.Context) {
	slog.Info("Starting reconciliation sweep job", "interval", j.interval)

	j.ticker = time.NewTicker(j.interval)

	// Run initial sweep immediately
	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Reconciliation sweep job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *ReconciliationSweepJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *ReconciliationSweepJob) sweep(ctx context.Context) {
	start := time.Now()

	if err := j.reconcile.ReconcileAll(ctx); err != nil {
		slog.Error("Reconciliation sweep failed", "error", err)
		return
	}

	slog.Info("Reconciliation sweep completed", "duration_ms", time.Since(start).Milliseconds())
}
