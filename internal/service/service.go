package service

import (
	"context"

	"kassa/internal/cache"
	"kassa/internal/database"
	"kassa/internal/external"
	"kassa/internal/messaging"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// EventStore is the slice of the event repository the services depend on.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	ApplyCompletedSale(ctx context.Context, eventID int64, quantity int) (*repository.SaleProjection, error)
	SetInventory(ctx context.Context, eventID int64, total, remaining int) (*repository.SaleProjection, error)
	RepairProjection(ctx context.Context, eventID int64, remaining int, soldOut bool) error
	RestoreAllCounters(ctx context.Context) error
}

// OrderStore is the slice of the ledger repository the services depend on.
type OrderStore interface {
	FinalizeSale(ctx context.Context, params repository.SaleParams) (*repository.FinalizeResult, error)
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	SumCompleted(ctx context.Context, eventID int64) (int, error)
	CancelPending(ctx context.Context, orderID int64) error
	DeleteAll(ctx context.Context) error
}

// Publisher emits domain events. Nil-able: services skip publishing when no
// broker is wired (tests, tooling).
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// SnapshotCache holds the fast-read inventory snapshot per event.
type SnapshotCache interface {
	GetInventory(ctx context.Context, eventID int64) (*models.InventorySnapshot, error)
	SetInventory(ctx context.Context, eventID int64, snap models.InventorySnapshot) error
	InvalidateInventory(ctx context.Context, eventID int64) error
}

// PaymentVerifier cross-checks webhook-reported payments with the gateway.
type PaymentVerifier interface {
	IsPaymentConfirmed(paymentID string) (bool, error)
}

type Services struct {
	Events    *EventService
	Inventory *InventoryService
	Sales     *SalesService
	Reconcile *ReconcileService
	Reset     *ResetService
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, valkeyClient *cache.ValkeyClient, paymentClient *external.PaymentClient) *Services {
	var publisher Publisher
	if natsClient != nil {
		publisher = natsClient
	}

	var snapshots SnapshotCache
	if valkeyClient != nil {
		snapshots = valkeyClient
	}

	var verifier PaymentVerifier
	if paymentClient != nil {
		verifier = paymentClient
	}

	eventService := NewEventService(repos.Events, snapshots, publisher)
	inventoryService := NewInventoryService(repos.Events, repos.Orders, snapshots, publisher)
	reconcileService := NewReconcileService(repos.Events, repos.Orders, snapshots, publisher, database.DefaultRetryPolicy())
	salesService := NewSalesService(eventService, inventoryService, repos.Orders, verifier, publisher)
	resetService := NewResetService(repos.Events, repos.Orders, snapshots)

	return &Services{
		Events:    eventService,
		Inventory: inventoryService,
		Sales:     salesService,
		Reconcile: reconcileService,
		Reset:     resetService,
	}
}
