package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"kassa/internal/config"
	"kassa/internal/database"

	"github.com/google/uuid"
)

var (
	clearExisting = flag.Bool("clear", false, "Clear existing events and orders before generating")
	eventCount    = flag.Int("events", 10, "Number of events to generate")
	withDrift     = flag.Bool("drift", false, "Corrupt some projections to exercise reconciliation")
	dryRun        = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

type SeedGenerator struct {
	db *database.DB
}

func main() {
	flag.Parse()

	slog.Info("Starting seed generator...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	generator := &SeedGenerator{db: db}

	if err := generator.Generate(); err != nil {
		slog.Error("Failed to generate seed data", "error", err)
		os.Exit(1)
	}

	slog.Info("Seed generation completed successfully!")
}

func (g *SeedGenerator) Generate() error {
	if *clearExisting {
		if err := g.clear(); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	for i := 0; i < *eventCount; i++ {
		if err := g.generateEvent(i); err != nil {
			slog.Error("Failed to generate event", "index", i, "error", err)
			continue
		}
	}

	return nil
}

func (g *SeedGenerator) clear() error {
	if *dryRun {
		slog.Info("[dry-run] would clear orders and events")
		return nil
	}

	if _, err := g.db.Exec("DELETE FROM orders"); err != nil {
		return err
	}
	if _, err := g.db.Exec("DELETE FROM events"); err != nil {
		return err
	}

	slog.Info("Cleared existing events and orders")
	return nil
}

func (g *SeedGenerator) generateEvent(index int) error {
	title := fmt.Sprintf("Концерт #%d", index+1)
	total := 50 + rand.Intn(451)

	// Часть тиража уже продана, остаток считается от леджера
	sold := rand.Intn(total / 2)
	remaining := total - sold

	if *dryRun {
		slog.Info("[dry-run] would create event",
			"title", title, "tickets_total", total, "sold", sold)
		return nil
	}

	var eventID int64
	err := g.db.QueryRow(`
		INSERT INTO events (title, description, tickets_total, tickets_remaining, sold_out)
		VALUES ($1, $2, $3, $4, $4 = 0)
		RETURNING id`,
		title, fmt.Sprintf("Seed event %d", index+1), total, remaining,
	).Scan(&eventID)
	if err != nil {
		return err
	}

	if err := g.generateOrders(eventID, sold); err != nil {
		return err
	}

	if *withDrift && rand.Intn(3) == 0 {
		if err := g.corruptProjection(eventID, total); err != nil {
			return err
		}
	}

	slog.Info("Generated event", "event_id", eventID, "title", title,
		"tickets_total", total, "sold", sold)
	return nil
}

// generateOrders fills the ledger so that completed quantities sum to sold.
// Pending and cancelled rows are mixed in; reconciliation must ignore them.
func (g *SeedGenerator) generateOrders(eventID int64, sold int) error {
	left := sold
	for left > 0 {
		qty := 1 + rand.Intn(4)
		if qty > left {
			qty = left
		}
		left -= qty

		channel := "online"
		var sessionID *string
		if rand.Intn(2) == 0 {
			channel = "box_office"
		} else {
			s := uuid.New().String()
			sessionID = &s
		}

		_, err := g.db.Exec(`
			INSERT INTO orders (event_id, quantity, status, channel, external_session_id)
			VALUES ($1, $2, 'completed', $3, $4)`,
			eventID, qty, channel, sessionID)
		if err != nil {
			return err
		}
	}

	// Немного незавершенных заказов для реализма
	for i := 0; i < rand.Intn(3); i++ {
		status := "pending"
		if rand.Intn(2) == 0 {
			status = "cancelled"
		}
		s := uuid.New().String()
		_, err := g.db.Exec(`
			INSERT INTO orders (event_id, quantity, status, channel, external_session_id)
			VALUES ($1, $2, $3, 'online', $4)`,
			eventID, 1+rand.Intn(4), status, s)
		if err != nil {
			return err
		}
	}

	return nil
}

// corruptProjection desyncs the counter from the ledger on purpose so the
// reconciliation sweep has real drift to repair.
func (g *SeedGenerator) corruptProjection(eventID int64, total int) error {
	bogus := rand.Intn(total + 1)
	_, err := g.db.Exec(
		"UPDATE events SET tickets_remaining = $2 WHERE id = $1",
		eventID, bogus)
	if err != nil {
		return err
	}

	slog.Info("Corrupted projection for drift testing", "event_id", eventID, "bogus_remaining", bogus)
	return nil
}
