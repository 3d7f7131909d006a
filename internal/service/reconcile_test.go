package service

import (
	"context"
	"testing"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconcileService() (*ReconcileService, *fakeEventStore, *fakeOrderStore, *fakeSnapshotCache, *fakePublisher) {
	events := newFakeEventStore()
	orders := newFakeOrderStore(events)
	snapshots := newFakeSnapshotCache()
	publisher := &fakePublisher{}
	svc := NewReconcileService(events, orders, snapshots, publisher, database.DefaultRetryPolicy())
	return svc, events, orders, snapshots, publisher
}

func TestReconcile_RepairsDrift(t *testing.T) {
	svc, events, orders, snapshots, publisher := newTestReconcileService()

	// total 100, completed 3+4, plus a pending order that must not count.
	// The projection is corrupted to 50; correct remaining is 93.
	eventID := events.seed(100, 50, false)
	orders.insert(models.Order{EventID: eventID, Quantity: 3, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})
	orders.insert(models.Order{EventID: eventID, Quantity: 4, Status: models.OrderStatusCompleted, Channel: models.ChannelBoxOffice})
	orders.insert(models.Order{EventID: eventID, Quantity: 2, Status: models.OrderStatusPending, Channel: models.ChannelOnline})
	snapshots.SetInventory(context.Background(), eventID, models.InventorySnapshot{TicketsRemaining: 50})

	resp, err := svc.Reconcile(context.Background(), eventID, false)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.Corrected)
	assert.Equal(t, 93, resp.TicketsRemaining)

	event := events.get(eventID)
	assert.Equal(t, 93, event.TicketsRemaining)
	assert.False(t, event.SoldOut)

	_, ok := snapshots.cached(eventID)
	assert.False(t, ok)

	assert.Equal(t, 1, publisher.countSubject(models.EventInventoryReconciled))
}

func TestReconcile_Idempotent(t *testing.T) {
	svc, events, orders, _, publisher := newTestReconcileService()

	eventID := events.seed(100, 50, false)
	orders.insert(models.Order{EventID: eventID, Quantity: 7, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})

	first, err := svc.Reconcile(context.Background(), eventID, false)
	require.NoError(t, err)
	assert.True(t, first.Corrected)
	assert.Equal(t, 93, first.TicketsRemaining)

	// No new orders between runs: the second run reports the same value and
	// corrects nothing
	second, err := svc.Reconcile(context.Background(), eventID, false)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.False(t, second.Corrected)
	assert.Equal(t, first.TicketsRemaining, second.TicketsRemaining)

	assert.Equal(t, 1, publisher.countSubject(models.EventInventoryReconciled))
}

func TestReconcile_ClampsAtZero(t *testing.T) {
	svc, events, orders, _, _ := newTestReconcileService()

	// Oversold ledger: completed quantities exceed capacity
	eventID := events.seed(10, 4, false)
	orders.insert(models.Order{EventID: eventID, Quantity: 8, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})
	orders.insert(models.Order{EventID: eventID, Quantity: 4, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})

	resp, err := svc.Reconcile(context.Background(), eventID, false)

	require.NoError(t, err)
	assert.True(t, resp.Corrected)
	assert.Equal(t, 0, resp.TicketsRemaining)

	event := events.get(eventID)
	assert.Equal(t, 0, event.TicketsRemaining)
	assert.True(t, event.SoldOut)
}

func TestReconcile_RepairsSoldOutFlagAlone(t *testing.T) {
	svc, events, _, _, _ := newTestReconcileService()

	// Counter is right but the flag is stale
	eventID := events.seed(10, 10, true)

	resp, err := svc.Reconcile(context.Background(), eventID, false)

	require.NoError(t, err)
	assert.True(t, resp.Corrected)
	assert.False(t, events.get(eventID).SoldOut)
}

func TestReconcile_DryRunDoesNotWrite(t *testing.T) {
	svc, events, orders, _, publisher := newTestReconcileService()

	eventID := events.seed(100, 50, false)
	orders.insert(models.Order{EventID: eventID, Quantity: 7, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})

	resp, err := svc.Reconcile(context.Background(), eventID, true)

	require.NoError(t, err)
	assert.True(t, resp.Corrected)
	assert.Equal(t, 93, resp.TicketsRemaining)

	// Projection untouched, nothing published
	assert.Equal(t, 50, events.get(eventID).TicketsRemaining)
	assert.Equal(t, 0, publisher.countSubject(models.EventInventoryReconciled))
}

func TestReconcile_EventNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestReconcileService()

	resp, err := svc.Reconcile(context.Background(), 999, false)

	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	assert.False(t, resp.Success)
}

func TestReconcileAll_SweepsEveryEvent(t *testing.T) {
	svc, events, orders, _, _ := newTestReconcileService()

	driftedID := events.seed(100, 1, false)
	orders.insert(models.Order{EventID: driftedID, Quantity: 5, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})
	cleanID := events.seed(50, 50, false)

	err := svc.ReconcileAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 95, events.get(driftedID).TicketsRemaining)
	assert.Equal(t, 50, events.get(cleanID).TicketsRemaining)
}
