package integration

import (
	"fmt"
	"os"
	"testing"
	"time"

	"kassa/internal/models"
)

// RequireAPI skips the test unless a live API base URL is configured.
func RequireAPI(t *testing.T) string {
	t.Helper()
	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		t.Skip("API_BASE_URL not set, skipping integration test")
	}
	return baseURL
}

// UniqueSessionID builds a session id that will not collide across runs
func UniqueSessionID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CheckoutPayload builds a checkout.completed webhook payload
func CheckoutPayload(eventID int64, quantity int, sessionID string) models.PaymentWebhookPayload {
	return models.PaymentWebhookPayload{
		Type:      models.WebhookCheckoutCompleted,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: &models.CheckoutCompletedData{
			EventID:   eventID,
			Quantity:  quantity,
			SessionID: sessionID,
		},
	}
}

// AssertCounters verifies the projection an event reports
func AssertCounters(t *testing.T, event models.EventResponse, remaining int, soldOut bool) {
	t.Helper()
	if event.TicketsRemaining != remaining {
		t.Fatalf("Event %d: tickets_remaining = %d, expected %d", event.ID, event.TicketsRemaining, remaining)
	}
	if event.SoldOut != soldOut {
		t.Fatalf("Event %d: sold_out = %v, expected %v", event.ID, event.SoldOut, soldOut)
	}
}

// LogTestStep logs a test step for better debugging
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf("🔹 "+step, args...)
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, result string, args ...interface{}) {
	t.Logf("✅ "+result, args...)
}
