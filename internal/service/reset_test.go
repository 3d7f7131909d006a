package service

import (
	"context"
	"testing"

	"kassa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetDatabase_RestoresPristineState(t *testing.T) {
	events := newFakeEventStore()
	orders := newFakeOrderStore(events)
	snapshots := newFakeSnapshotCache()
	svc := NewResetService(events, orders, snapshots)

	eventID := events.seed(100, 60, false)
	soldOutID := events.seed(5, 0, true)
	orders.insert(models.Order{EventID: eventID, Quantity: 40, Status: models.OrderStatusCompleted, Channel: models.ChannelOnline})
	snapshots.SetInventory(context.Background(), eventID, models.InventorySnapshot{TicketsRemaining: 60})

	err := svc.ResetDatabase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, orders.count())

	event := events.get(eventID)
	assert.Equal(t, 100, event.TicketsRemaining)
	assert.False(t, event.SoldOut)

	restored := events.get(soldOutID)
	assert.Equal(t, 5, restored.TicketsRemaining)
	assert.False(t, restored.SoldOut)

	_, ok := snapshots.cached(eventID)
	assert.False(t, ok)
}
