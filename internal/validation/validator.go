package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"kassa/internal/models"
)

// SpecValidator - валидатор соответствия API контракту
type SpecValidator struct {
	baseURL string
}

// NewSpecValidator создает новый валидатор
func NewSpecValidator(baseURL string) *SpecValidator {
	return &SpecValidator{baseURL: baseURL}
}

// ValidateAll проверяет все endpoints на соответствие контракту
func (v *SpecValidator) ValidateAll() error {
	log.Println("Начинаю валидацию API...")

	eventID, err := v.validateEvents()
	if err != nil {
		return fmt.Errorf("Events validation failed: %w", err)
	}

	if err := v.validateBoxOffice(eventID); err != nil {
		return fmt.Errorf("BoxOffice validation failed: %w", err)
	}

	if err := v.validateWebhooks(eventID); err != nil {
		return fmt.Errorf("Webhooks validation failed: %w", err)
	}

	if err := v.validateAdmin(eventID); err != nil {
		return fmt.Errorf("Admin validation failed: %w", err)
	}

	log.Println("✅ Все endpoints прошли валидацию успешно!")
	return nil
}

func (v *SpecValidator) validateEvents() (int64, error) {
	log.Println("Проверяю Events endpoints...")

	// POST /api/events
	desc := "Validation run"
	reqBody := models.CreateEventRequest{
		Title:        "Тестовое событие",
		Description:  &desc,
		TicketsTotal: 100,
	}

	resp, err := v.makeRequest("POST", "/api/events", reqBody)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("POST /api/events: expected 201, got %d", resp.StatusCode)
	}

	var createResp models.CreateEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return 0, fmt.Errorf("POST /api/events: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if createResp.ID == 0 {
		return 0, fmt.Errorf("POST /api/events: expected non-zero ID")
	}

	// GET /api/events
	resp, err = v.makeRequest("GET", "/api/events", nil)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/events: expected 200, got %d", resp.StatusCode)
	}

	var listResp []models.EventResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return 0, fmt.Errorf("GET /api/events: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if len(listResp) == 0 {
		return 0, fmt.Errorf("GET /api/events: expected non-empty list")
	}

	// GET /api/events/:id
	resp, err = v.makeRequest("GET", fmt.Sprintf("/api/events/%d", createResp.ID), nil)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/events/:id: expected 200, got %d", resp.StatusCode)
	}

	var eventResp models.EventResponse
	if err := json.NewDecoder(resp.Body).Decode(&eventResp); err != nil {
		return 0, fmt.Errorf("GET /api/events/:id: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if eventResp.TicketsRemaining != eventResp.TicketsTotal {
		return 0, fmt.Errorf("GET /api/events/:id: fresh event should have full inventory")
	}

	log.Println("✅ Events endpoints валидны")
	return createResp.ID, nil
}

func (v *SpecValidator) validateBoxOffice(eventID int64) error {
	log.Println("Проверяю BoxOffice endpoints...")

	// POST /api/boxoffice/sales
	reqBody := models.BoxOfficeSaleRequest{
		EventID:  eventID,
		Quantity: 2,
	}

	resp, err := v.makeRequest("POST", "/api/boxoffice/sales", reqBody)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/boxoffice/sales: expected 201, got %d", resp.StatusCode)
	}

	var saleResp models.BoxOfficeSaleResponse
	if err := json.NewDecoder(resp.Body).Decode(&saleResp); err != nil {
		return fmt.Errorf("POST /api/boxoffice/sales: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if saleResp.OrderID == 0 {
		return fmt.Errorf("POST /api/boxoffice/sales: expected non-zero order_id")
	}

	// Нулевое количество должно быть отклонено
	resp, err = v.makeRequest("POST", "/api/boxoffice/sales", models.BoxOfficeSaleRequest{EventID: eventID, Quantity: -1})
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("POST /api/boxoffice/sales: expected 400 for invalid quantity, got %d", resp.StatusCode)
	}

	log.Println("✅ BoxOffice endpoints валидны")
	return nil
}

func (v *SpecValidator) validateWebhooks(eventID int64) error {
	log.Println("Проверяю Webhook endpoints...")

	// POST /api/webhooks/payment - известный тип
	payload := models.PaymentWebhookPayload{
		Type: models.WebhookCheckoutCompleted,
		Data: &models.CheckoutCompletedData{
			EventID:   eventID,
			Quantity:  1,
			SessionID: fmt.Sprintf("validate-%d", eventID),
			PaymentID: "validate-payment",
		},
	}

	resp, err := v.makeRequest("POST", "/api/webhooks/payment", payload)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/webhooks/payment: expected 200, got %d", resp.StatusCode)
	}

	// Повторная доставка той же сессии должна быть идемпотентной
	resp, err = v.makeRequest("POST", "/api/webhooks/payment", payload)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/webhooks/payment (redelivery): expected 200, got %d", resp.StatusCode)
	}

	// Неизвестный тип подтверждается, но игнорируется
	unknown := models.PaymentWebhookPayload{Type: "refund.created"}
	resp, err = v.makeRequest("POST", "/api/webhooks/payment", unknown)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/webhooks/payment (unknown type): expected 200, got %d", resp.StatusCode)
	}

	log.Println("✅ Webhook endpoints валидны")
	return nil
}

func (v *SpecValidator) validateAdmin(eventID int64) error {
	log.Println("Проверяю Admin endpoints...")

	// PUT /api/admin/events/:id/inventory
	reqBody := models.SetInventoryRequest{
		TicketsTotal:     50,
		TicketsRemaining: 40,
	}

	resp, err := v.makeRequest("PUT", fmt.Sprintf("/api/admin/events/%d/inventory", eventID), reqBody)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PUT /api/admin/events/:id/inventory: expected 200, got %d", resp.StatusCode)
	}

	// POST /api/admin/events/:id/reconcile
	resp, err = v.makeRequest("POST", fmt.Sprintf("/api/admin/events/%d/reconcile", eventID), nil)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/admin/events/:id/reconcile: expected 200, got %d", resp.StatusCode)
	}

	var recResp models.ReconcileResponse
	if err := json.NewDecoder(resp.Body).Decode(&recResp); err != nil {
		return fmt.Errorf("POST /api/admin/events/:id/reconcile: failed to decode response: %w", err)
	}
	resp.Body.Close()

	if !recResp.Success {
		return fmt.Errorf("POST /api/admin/events/:id/reconcile: expected success")
	}

	// Повторный запуск не должен находить расхождений
	resp, err = v.makeRequest("POST", fmt.Sprintf("/api/admin/events/%d/reconcile", eventID), nil)
	if err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(&recResp); err != nil {
		return fmt.Errorf("POST /api/admin/events/:id/reconcile (repeat): failed to decode response: %w", err)
	}
	resp.Body.Close()

	if recResp.Corrected {
		return fmt.Errorf("POST /api/admin/events/:id/reconcile: second run should not correct anything")
	}

	log.Println("✅ Admin endpoints валидны")
	return nil
}

func (v *SpecValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		req, err = http.NewRequest(method, v.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, v.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

// RunValidation запускает валидацию API
func RunValidation() {
	baseURL := "http://localhost:8081"

	validator := NewSpecValidator(baseURL)
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("❌ Валидация не пройдена: %v", err)
	}
}
