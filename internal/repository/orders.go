package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/models"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// SaleParams describes one finalized sale crossing the mutation gate.
type SaleParams struct {
	EventID   int64
	Quantity  int
	Channel   string
	SessionID *string
	PaymentID *string
}

// FinalizeResult is returned once the ledger row and the counter have both
// settled inside the same transaction.
type FinalizeResult struct {
	OrderID          int64
	TicketsRemaining int
	SoldOut          bool
}

// FinalizeSale records a completed sale and updates the counter projection
// in one transaction. The event row is locked with SELECT ... FOR UPDATE, so
// the check-insert-decrement critical section is serialized per event and a
// concurrent sale cannot oversell.
//
// Duplicate session ids (webhook redelivery) are detected by the partial
// unique index on orders.external_session_id: the insert is skipped and
// ErrDuplicateSale is returned without touching the counter.
func (r *OrderRepository) FinalizeSale(ctx context.Context, params SaleParams) (*FinalizeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row. Concurrent finalizations for the same event queue
	// behind this lock until commit.
	var total, remaining int
	err = tx.QueryRowContext(ctx,
		`SELECT tickets_total, tickets_remaining
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		params.EventID,
	).Scan(&total, &remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.ErrEventNotFound
		}
		return nil, err
	}

	if remaining == 0 {
		err = apperrors.ErrSoldOut
		return nil, err
	}
	if params.Quantity > remaining {
		err = apperrors.ErrInsufficientTickets
		return nil, err
	}

	// Idempotent ledger insert. ON CONFLICT DO NOTHING returns no row when
	// the session id has been seen before.
	var orderID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (event_id, quantity, status, channel, external_session_id, payment_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (external_session_id) WHERE external_session_id IS NOT NULL DO NOTHING
		 RETURNING id`,
		params.EventID,
		params.Quantity,
		models.OrderStatusCompleted,
		params.Channel,
		params.SessionID,
		params.PaymentID,
	).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = apperrors.ErrDuplicateSale
		}
		return nil, err
	}

	newRemaining := remaining - params.Quantity
	soldOut := newRemaining == 0

	_, err = tx.ExecContext(ctx,
		`UPDATE events
		 SET tickets_remaining = $2, sold_out = $3, updated_at = NOW()
		 WHERE id = $1`,
		params.EventID, newRemaining, soldOut,
	)
	if err != nil {
		return nil, fmt.Errorf("update counter: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &FinalizeResult{
		OrderID:          orderID,
		TicketsRemaining: newRemaining,
		SoldOut:          soldOut,
	}, nil
}

// Create inserts a ledger row without touching the counter. Callers that
// insert completed rows this way are expected to push the sale through the
// gate (or rely on reconciliation).
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (event_id, quantity, status, channel, external_session_id, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_session_id) WHERE external_session_id IS NOT NULL DO NOTHING
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		order.EventID,
		order.Quantity,
		order.Status,
		order.Channel,
		order.ExternalSessionID,
		order.PaymentID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)

	if err == sql.ErrNoRows {
		return apperrors.ErrDuplicateSale
	}

	return err
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, event_id, quantity, status, channel, external_session_id, payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.EventID,
		&order.Quantity,
		&order.Status,
		&order.Channel,
		&order.ExternalSessionID,
		&order.PaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrOrderNotFound
	}

	return order, err
}

func (r *OrderRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.Order, error) {
	var orders []models.Order
	query := `
		SELECT id, event_id, quantity, status, channel, external_session_id, payment_id, created_at, updated_at
		FROM orders
		WHERE event_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.EventID,
			&order.Quantity,
			&order.Status,
			&order.Channel,
			&order.ExternalSessionID,
			&order.PaymentID,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// SumCompleted returns the authoritative consumed inventory for an event.
// Pending and cancelled orders never count.
func (r *OrderRepository) SumCompleted(ctx context.Context, eventID int64) (int, error) {
	var sold int
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM orders
		WHERE event_id = $1 AND status = $2`

	err := r.db.QueryRowContext(ctx, query, eventID, models.OrderStatusCompleted).Scan(&sold)
	return sold, err
}

// CancelPending moves a pending order to cancelled. Cancelled orders have no
// inventory effect, so the counter is left alone.
func (r *OrderRepository) CancelPending(ctx context.Context, orderID int64) error {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, orderID, models.OrderStatusCancelled, models.OrderStatusPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrOrderNotFound
	}

	return nil
}

// DeleteAll wipes the ledger. Test cleanup only; orders are never deleted in
// normal operation.
func (r *OrderRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders`)
	return err
}
