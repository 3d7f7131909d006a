package external

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// PaymentClient talks to the payment gateway. The checkout flow itself lives
// on the gateway's side; we only verify completed payments reported by its
// webhook before finalizing a sale.
type PaymentClient struct {
	baseURL    string
	teamSlug   string
	password   string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL  string
	TeamSlug string
	Password string
	Timeout  time.Duration
}

type PaymentCheckRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
}

type PaymentCheckResponse struct {
	Success    bool             `json:"success"`
	Payments   []PaymentDetails `json:"payments"`
	TotalCount int              `json:"totalCount"`
	OrderID    string           `json:"orderId"`
}

type PaymentDetails struct {
	PaymentID         string `json:"paymentId"`
	OrderID           string `json:"orderId"`
	Status            string `json:"status"`
	StatusDescription string `json:"statusDescription"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL:  cfg.BaseURL,
		teamSlug: cfg.TeamSlug,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (pc *PaymentClient) generateToken(params map[string]string) string {
	params["TeamSlug"] = pc.teamSlug
	params["Password"] = pc.password

	// Sort parameters alphabetically
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}

// CheckPayment queries the gateway for the payment's current state.
func (pc *PaymentClient) CheckPayment(paymentID string) (*PaymentCheckResponse, error) {
	params := map[string]string{
		"PaymentId": paymentID,
	}
	token := pc.generateToken(params)

	req := PaymentCheckRequest{
		TeamSlug:  pc.teamSlug,
		Token:     token,
		PaymentID: paymentID,
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := pc.httpClient.Post(pc.baseURL+"/api/v1/PaymentCheck/check", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to check payment: %w", err)
	}
	defer resp.Body.Close()

	var result PaymentCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// IsPaymentConfirmed reports whether the gateway considers the payment
// settled. Unknown payment ids are treated as unconfirmed.
func (pc *PaymentClient) IsPaymentConfirmed(paymentID string) (bool, error) {
	resp, err := pc.CheckPayment(paymentID)
	if err != nil {
		return false, err
	}

	for _, p := range resp.Payments {
		if p.PaymentID == paymentID && (p.Status == "CONFIRMED" || p.Status == "completed") {
			return true, nil
		}
	}

	return false, nil
}
