package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createEventsTable,
		createOrdersTable,
		createOrdersSessionIndex,
		createOrdersEventStatusIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    tickets_total INTEGER NOT NULL DEFAULT 0,
    tickets_remaining INTEGER NOT NULL DEFAULT 0,
    sold_out BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (tickets_total >= 0),
    CHECK (tickets_remaining >= 0)
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    channel VARCHAR(20) NOT NULL DEFAULT 'online',
    external_session_id VARCHAR(255),
    payment_id VARCHAR(255),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (quantity > 0),
    CHECK (status IN ('pending', 'completed', 'cancelled')),
    CHECK (channel IN ('online', 'box_office'))
);`

// Webhook redeliveries must be at-most-once-effective: the session id is the
// idempotency key for the ledger insert.
const createOrdersSessionIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS orders_external_session_id_idx
ON orders (external_session_id)
WHERE external_session_id IS NOT NULL;`

const createOrdersEventStatusIndex = `
CREATE INDEX IF NOT EXISTS orders_event_status_idx
ON orders (event_id, status);`
