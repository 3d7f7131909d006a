package repository

import (
	"context"
	"database/sql"

	"kassa/internal/database"
	apperrors "kassa/internal/errors"
	"kassa/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// SaleProjection is the settled state of the counter after a write.
type SaleProjection struct {
	TicketsRemaining int
	SoldOut          bool
	Clamped          bool
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	// Events start with the full capacity remaining
	query := `
		INSERT INTO events (title, description, tickets_total, tickets_remaining, sold_out)
		VALUES ($1, $2, $3, $3, $3 = 0)
		RETURNING id, tickets_remaining, sold_out, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.TicketsTotal,
	).Scan(&event.ID, &event.TicketsRemaining, &event.SoldOut, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, description, tickets_total, tickets_remaining, sold_out, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.TicketsTotal,
		&event.TicketsRemaining,
		&event.SoldOut,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrEventNotFound
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	query := `
		SELECT id, title, description, tickets_total, tickets_remaining, sold_out, created_at, updated_at
		FROM events
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.TicketsTotal,
			&event.TicketsRemaining,
			&event.SoldOut,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// ApplyCompletedSale decrements the projection for a sale that is already on
// the ledger. One atomic statement: the read, the clamp at zero and the
// sold_out derivation happen inside the UPDATE, so concurrent callers can
// never drive the counter negative.
func (r *EventRepository) ApplyCompletedSale(ctx context.Context, eventID int64, quantity int) (*SaleProjection, error) {
	query := `
		UPDATE events e
		SET tickets_remaining = GREATEST(0, e.tickets_remaining - $2),
		    sold_out = (e.tickets_remaining - $2 <= 0),
		    updated_at = NOW()
		FROM (SELECT id, tickets_remaining AS prev_remaining FROM events WHERE id = $1 FOR UPDATE) p
		WHERE e.id = p.id
		RETURNING e.tickets_remaining, e.sold_out, (p.prev_remaining < $2)`

	proj := &SaleProjection{}
	err := r.db.QueryRowContext(ctx, query, eventID, quantity).Scan(
		&proj.TicketsRemaining,
		&proj.SoldOut,
		&proj.Clamped,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrEventNotFound
	}

	return proj, err
}

// SetInventory is the sanctioned admin bypass: counters are written verbatim
// (remaining clamped into [0, total]) and sold_out is always recomputed.
func (r *EventRepository) SetInventory(ctx context.Context, eventID int64, total, remaining int) (*SaleProjection, error) {
	query := `
		UPDATE events
		SET tickets_total = $2,
		    tickets_remaining = LEAST($2, GREATEST(0, $3)),
		    sold_out = (LEAST($2, GREATEST(0, $3)) = 0),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING tickets_remaining, sold_out`

	proj := &SaleProjection{}
	err := r.db.QueryRowContext(ctx, query, eventID, total, remaining).Scan(
		&proj.TicketsRemaining,
		&proj.SoldOut,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.ErrEventNotFound
	}

	return proj, err
}

// RepairProjection overwrites both projection fields in a single UPDATE; it
// is the only writer reconciliation uses, so a repair either lands entirely
// or not at all.
func (r *EventRepository) RepairProjection(ctx context.Context, eventID int64, remaining int, soldOut bool) error {
	query := `
		UPDATE events
		SET tickets_remaining = $2, sold_out = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, eventID, remaining, soldOut)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

// RestoreAllCounters resets every event to its full capacity. Used by the
// test-harness reset after the ledger is wiped.
func (r *EventRepository) RestoreAllCounters(ctx context.Context) error {
	query := `
		UPDATE events
		SET tickets_remaining = tickets_total,
		    sold_out = (tickets_total = 0),
		    updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query)
	return err
}
