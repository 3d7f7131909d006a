package integration

import (
	"net/http"
	"testing"

	"kassa/internal/models"
)

// TestAPI_HealthCheck tests the API health endpoint
func TestAPI_HealthCheck(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	LogTestStep(t, "Testing API health check")
	client.HealthCheck(t)
	LogTestResult(t, "API is healthy and responding")
}

// TestAPI_EventLifecycle creates an event and verifies its counters
func TestAPI_EventLifecycle(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	LogTestStep(t, "Creating event with 100 tickets")
	eventID := client.CreateEvent(t, "Интеграционный концерт", 100)

	event := client.GetEvent(t, eventID)
	AssertCounters(t, event, 100, false)

	events := client.ListEvents(t)
	found := false
	for _, e := range events {
		if e.ID == eventID {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("Event %d not found in events list", eventID)
	}

	LogTestResult(t, "Event %d created with full inventory", eventID)
}

// TestAPI_BoxOfficeFlow sells tickets at the box office down to sold out
func TestAPI_BoxOfficeFlow(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	eventID := client.CreateEvent(t, "Камерный вечер", 5)

	LogTestStep(t, "Selling 3 of 5 tickets")
	sale, status := client.BoxOfficeSale(t, eventID, 3)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	if sale.TicketsRemaining != 2 {
		t.Fatalf("Expected 2 remaining, got %d", sale.TicketsRemaining)
	}

	LogTestStep(t, "Overselling must be rejected")
	_, status = client.BoxOfficeSale(t, eventID, 3)
	if status != http.StatusConflict {
		t.Fatalf("Expected 409 for oversell, got %d", status)
	}

	LogTestStep(t, "Selling the exact remainder")
	sale, status = client.BoxOfficeSale(t, eventID, 2)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	if !sale.SoldOut {
		t.Fatal("Expected sold_out after the last ticket")
	}

	LogTestStep(t, "Sold-out event rejects further sales")
	_, status = client.BoxOfficeSale(t, eventID, 1)
	if status != http.StatusConflict {
		t.Fatalf("Expected 409 when sold out, got %d", status)
	}

	AssertCounters(t, client.GetEvent(t, eventID), 0, true)
	LogTestResult(t, "Box office flow complete")
}

// TestAPI_WebhookIdempotency verifies redeliveries decrement only once
func TestAPI_WebhookIdempotency(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	eventID := client.CreateEvent(t, "Онлайн-продажи", 50)
	payload := CheckoutPayload(eventID, 4, UniqueSessionID("cs-idem"))

	LogTestStep(t, "Delivering checkout.completed webhook twice")
	if status := client.SendWebhook(t, payload); status != http.StatusOK {
		t.Fatalf("Expected 200 on first delivery, got %d", status)
	}
	if status := client.SendWebhook(t, payload); status != http.StatusOK {
		t.Fatalf("Expected 200 on redelivery, got %d", status)
	}

	AssertCounters(t, client.GetEvent(t, eventID), 46, false)
	LogTestResult(t, "Counter decremented exactly once across redeliveries")
}

// TestAPI_WebhookUnknownTypeIgnored verifies unknown webhook types are
// acknowledged without inventory effect
func TestAPI_WebhookUnknownTypeIgnored(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	eventID := client.CreateEvent(t, "Без изменений", 10)

	status := client.SendWebhook(t, models.PaymentWebhookPayload{Type: "refund.created"})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for unknown type, got %d", status)
	}

	AssertCounters(t, client.GetEvent(t, eventID), 10, false)
	LogTestResult(t, "Unknown webhook type acknowledged and ignored")
}

// TestAPI_AdminOverrideAndReconcile drives drift through an admin override
// and repairs it with reconciliation
func TestAPI_AdminOverrideAndReconcile(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	eventID := client.CreateEvent(t, "Админский дрейф", 100)

	LogTestStep(t, "Selling 7 tickets on the ledger")
	if _, status := client.BoxOfficeSale(t, eventID, 7); status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}

	LogTestStep(t, "Corrupting the projection via admin override")
	client.SetInventory(t, eventID, 100, 50)
	AssertCounters(t, client.GetEvent(t, eventID), 50, false)

	LogTestStep(t, "Reconciling against the ledger")
	result := client.Reconcile(t, eventID)
	if !result.Success || !result.Corrected {
		t.Fatalf("Expected a correcting reconciliation, got %+v", result)
	}
	if result.TicketsRemaining != 93 {
		t.Fatalf("Expected 93 remaining after reconciliation, got %d", result.TicketsRemaining)
	}

	LogTestStep(t, "Second run must be a no-op")
	result = client.Reconcile(t, eventID)
	if result.Corrected {
		t.Fatal("Second reconciliation run corrected again")
	}

	AssertCounters(t, client.GetEvent(t, eventID), 93, false)
	LogTestResult(t, "Reconciliation repaired the drift exactly once")
}

// TestAPI_WebhookOversellClampsToZero verifies a paid sale beyond capacity
// lands on the ledger while the counter clamps at zero
func TestAPI_WebhookOversellClampsToZero(t *testing.T) {
	client := NewTestClient(RequireAPI(t))

	eventID := client.CreateEvent(t, "Переполненный зал", 3)

	status := client.SendWebhook(t, CheckoutPayload(eventID, 5, UniqueSessionID("cs-over")))
	if status != http.StatusOK {
		t.Fatalf("Expected 200 for paid oversell, got %d", status)
	}

	AssertCounters(t, client.GetEvent(t, eventID), 0, true)

	// Reconciliation agrees: the ledger says more than capacity was sold,
	// so zero is already the correct projection
	result := client.Reconcile(t, eventID)
	if result.Corrected {
		t.Fatal("Clamped projection should already match the ledger")
	}
	LogTestResult(t, "Oversold webhook clamped the counter at zero")
}
