package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"kassa/internal/models"
)

// TestClient wraps HTTP calls against a running API instance.
type TestClient struct {
	baseURL string
	client  *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *TestClient) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		req, err = http.NewRequest(method, c.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, c.baseURL+path, nil)
		if err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (c *TestClient) decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// HealthCheck verifies the API is up
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.do(t, "GET", "/health", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}

// CreateEvent creates an event and returns its id
func (c *TestClient) CreateEvent(t *testing.T, title string, ticketsTotal int) int64 {
	resp := c.do(t, "POST", "/api/events", models.CreateEventRequest{
		Title:        title,
		TicketsTotal: ticketsTotal,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("CreateEvent: expected 201, got %d", resp.StatusCode)
	}

	var created models.CreateEventResponse
	c.decode(t, resp, &created)
	return created.ID
}

// GetEvent fetches an event with its counters
func (c *TestClient) GetEvent(t *testing.T, eventID int64) models.EventResponse {
	resp := c.do(t, "GET", fmt.Sprintf("/api/events/%d", eventID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GetEvent: expected 200, got %d", resp.StatusCode)
	}

	var event models.EventResponse
	c.decode(t, resp, &event)
	return event
}

// ListEvents fetches all events
func (c *TestClient) ListEvents(t *testing.T) []models.EventResponse {
	resp := c.do(t, "GET", "/api/events", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ListEvents: expected 200, got %d", resp.StatusCode)
	}

	var events []models.EventResponse
	c.decode(t, resp, &events)
	return events
}

// BoxOfficeSale finalizes a box office sale; returns the response and status
func (c *TestClient) BoxOfficeSale(t *testing.T, eventID int64, quantity int) (*models.BoxOfficeSaleResponse, int) {
	resp := c.do(t, "POST", "/api/boxoffice/sales", models.BoxOfficeSaleRequest{
		EventID:  eventID,
		Quantity: quantity,
	})
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		return nil, resp.StatusCode
	}

	var sale models.BoxOfficeSaleResponse
	c.decode(t, resp, &sale)
	return &sale, http.StatusCreated
}

// SendWebhook delivers a payment webhook payload; returns the status code
func (c *TestClient) SendWebhook(t *testing.T, payload models.PaymentWebhookPayload) int {
	resp := c.do(t, "POST", "/api/webhooks/payment", payload)
	resp.Body.Close()
	return resp.StatusCode
}

// SetInventory applies an admin counter override
func (c *TestClient) SetInventory(t *testing.T, eventID int64, total, remaining int) models.EventResponse {
	resp := c.do(t, "PUT", fmt.Sprintf("/api/admin/events/%d/inventory", eventID), models.SetInventoryRequest{
		TicketsTotal:     total,
		TicketsRemaining: remaining,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("SetInventory: expected 200, got %d", resp.StatusCode)
	}

	var event models.EventResponse
	c.decode(t, resp, &event)
	return event
}

// Reconcile triggers reconciliation for an event
func (c *TestClient) Reconcile(t *testing.T, eventID int64) models.ReconcileResponse {
	resp := c.do(t, "POST", fmt.Sprintf("/api/admin/events/%d/reconcile", eventID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Reconcile: expected 200, got %d", resp.StatusCode)
	}

	var result models.ReconcileResponse
	c.decode(t, resp, &result)
	return result
}

// Reset wipes the ledger and restores counters
func (c *TestClient) Reset(t *testing.T) {
	resp := c.do(t, "POST", "/api/reset", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Reset: expected 200, got %d", resp.StatusCode)
	}
}
