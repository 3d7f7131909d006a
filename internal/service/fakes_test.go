package service

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/models"
	"kassa/internal/repository"
)

var errCacheMiss = errors.New("cache miss")

// fakeEventStore keeps the counter projection in memory. The mutex plays the
// role of the row lock: counter updates are serialized the same way the real
// store serializes them.
type fakeEventStore struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*models.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[int64]*models.Event)}
}

func (f *fakeEventStore) seed(total, remaining int, soldOut bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.events[f.nextID] = &models.Event{
		ID:               f.nextID,
		Title:            "Концерт",
		TicketsTotal:     total,
		TicketsRemaining: remaining,
		SoldOut:          soldOut,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	return f.nextID
}

func (f *fakeEventStore) get(id int64) models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

func (f *fakeEventStore) Create(ctx context.Context, event *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = f.nextID
	event.TicketsRemaining = event.TicketsTotal
	event.SoldOut = event.TicketsTotal == 0
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeEventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *fakeEventStore) List(ctx context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []models.Event
	for _, event := range f.events {
		events = append(events, *event)
	}
	return events, nil
}

func (f *fakeEventStore) ApplyCompletedSale(ctx context.Context, eventID int64, quantity int) (*repository.SaleProjection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}

	prev := event.TicketsRemaining
	next := prev - quantity
	if next < 0 {
		next = 0
	}
	event.TicketsRemaining = next
	event.SoldOut = prev-quantity <= 0
	event.UpdatedAt = time.Now()

	return &repository.SaleProjection{
		TicketsRemaining: next,
		SoldOut:          event.SoldOut,
		Clamped:          prev < quantity,
	}, nil
}

func (f *fakeEventStore) SetInventory(ctx context.Context, eventID int64, total, remaining int) (*repository.SaleProjection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}

	if remaining < 0 {
		remaining = 0
	}
	if remaining > total {
		remaining = total
	}
	event.TicketsTotal = total
	event.TicketsRemaining = remaining
	event.SoldOut = remaining == 0
	event.UpdatedAt = time.Now()

	return &repository.SaleProjection{
		TicketsRemaining: remaining,
		SoldOut:          event.SoldOut,
	}, nil
}

func (f *fakeEventStore) RepairProjection(ctx context.Context, eventID int64, remaining int, soldOut bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[eventID]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	event.TicketsRemaining = remaining
	event.SoldOut = soldOut
	event.UpdatedAt = time.Now()
	return nil
}

func (f *fakeEventStore) RestoreAllCounters(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, event := range f.events {
		event.TicketsRemaining = event.TicketsTotal
		event.SoldOut = event.TicketsTotal == 0
	}
	return nil
}

// fakeOrderStore is the in-memory ledger. FinalizeSale couples it to the
// event store the way the transactional path does: check, insert and
// decrement under one lock.
type fakeOrderStore struct {
	mu     sync.Mutex
	nextID int64
	orders []*models.Order
	events *fakeEventStore
}

func newFakeOrderStore(events *fakeEventStore) *fakeOrderStore {
	return &fakeOrderStore{events: events}
}

func (f *fakeOrderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrderStore) last() models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.orders[len(f.orders)-1]
}

func (f *fakeOrderStore) hasSession(sessionID string) bool {
	for _, order := range f.orders {
		if order.ExternalSessionID != nil && *order.ExternalSessionID == sessionID {
			return true
		}
	}
	return false
}

func (f *fakeOrderStore) insert(order models.Order) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	f.orders = append(f.orders, &order)
	return order.ID
}

func (f *fakeOrderStore) FinalizeSale(ctx context.Context, params repository.SaleParams) (*repository.FinalizeResult, error) {
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events.events[params.EventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if event.TicketsRemaining == 0 {
		return nil, apperrors.ErrSoldOut
	}
	if params.Quantity > event.TicketsRemaining {
		return nil, apperrors.ErrInsufficientTickets
	}
	if params.SessionID != nil && f.hasSession(*params.SessionID) {
		return nil, apperrors.ErrDuplicateSale
	}

	f.nextID++
	order := &models.Order{
		ID:                f.nextID,
		EventID:           params.EventID,
		Quantity:          params.Quantity,
		Status:            models.OrderStatusCompleted,
		Channel:           params.Channel,
		ExternalSessionID: params.SessionID,
		PaymentID:         params.PaymentID,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	f.orders = append(f.orders, order)

	event.TicketsRemaining -= params.Quantity
	event.SoldOut = event.TicketsRemaining == 0
	event.UpdatedAt = time.Now()

	return &repository.FinalizeResult{
		OrderID:          order.ID,
		TicketsRemaining: event.TicketsRemaining,
		SoldOut:          event.SoldOut,
	}, nil
}

func (f *fakeOrderStore) Create(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ExternalSessionID != nil && f.hasSession(*order.ExternalSessionID) {
		return apperrors.ErrDuplicateSale
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	copied := *order
	f.orders = append(f.orders, &copied)
	return nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.ID == id {
			copied := *order
			return &copied, nil
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (f *fakeOrderStore) SumCompleted(ctx context.Context, eventID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sold := 0
	for _, order := range f.orders {
		if order.EventID == eventID && order.Status == models.OrderStatusCompleted {
			sold += order.Quantity
		}
	}
	return sold, nil
}

func (f *fakeOrderStore) CancelPending(ctx context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.ID == orderID && order.Status == models.OrderStatusPending {
			order.Status = models.OrderStatusCancelled
			order.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.ErrOrderNotFound
}

func (f *fakeOrderStore) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = nil
	return nil
}

// fakePublisher records published domain events.
type fakePublisher struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	Subject string
	Data    interface{}
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedEvent{Subject: subject, Data: data})
	return nil
}

func (f *fakePublisher) countSubject(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.published {
		if e.Subject == subject {
			n++
		}
	}
	return n
}

// fakeSnapshotCache is an always-available in-memory snapshot cache.
type fakeSnapshotCache struct {
	mu            sync.Mutex
	snapshots     map[int64]models.InventorySnapshot
	invalidations int
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{snapshots: make(map[int64]models.InventorySnapshot)}
}

func (f *fakeSnapshotCache) GetInventory(ctx context.Context, eventID int64) (*models.InventorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[eventID]
	if !ok {
		return nil, errCacheMiss
	}
	return &snap, nil
}

func (f *fakeSnapshotCache) SetInventory(ctx context.Context, eventID int64, snap models.InventorySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[eventID] = snap
	return nil
}

func (f *fakeSnapshotCache) InvalidateInventory(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, eventID)
	f.invalidations++
	return nil
}

func (f *fakeSnapshotCache) cached(eventID int64) (models.InventorySnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[eventID]
	return snap, ok
}

// fakeVerifier answers payment confirmation checks.
type fakeVerifier struct {
	confirmed bool
	err       error
	calls     int
}

func (f *fakeVerifier) IsPaymentConfirmed(paymentID string) (bool, error) {
	f.calls++
	return f.confirmed, f.err
}
