package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MollieAmount is Mollie's wire representation of money: a decimal string
// plus an ISO currency code.
type MollieAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// MolliePayment is the subset of Mollie's payment resource we consume.
type MolliePayment struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Amount      MollieAmount      `json:"amount"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Links       struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

// CreateMolliePaymentRequest is the payload for creating a payment.
type CreateMolliePaymentRequest struct {
	Amount      MollieAmount      `json:"amount"`
	Description string            `json:"description"`
	RedirectURL string            `json:"redirectUrl"`
	WebhookURL  string            `json:"webhookUrl"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// MollieClient is a thin authenticated client for the Mollie v2 API. Mollie
// has no signed webhooks, so this client is also the trust anchor for
// reconciliation: whatever it returns overrides anything a webhook claimed.
type MollieClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMollieClient builds a client with a bounded request timeout.
func NewMollieClient(baseURL, apiKey string) *MollieClient {
	return &MollieClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetPayment fetches a payment resource by id.
func (c *MollieClient) GetPayment(ctx context.Context, id string) (*MolliePayment, error) {
	url := fmt.Sprintf("%s/v2/payments/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build mollie request: %w", err)
	}
	return c.do(req)
}

// CreatePayment creates a new payment and returns the resource, including
// the hosted checkout link.
func (c *MollieClient) CreatePayment(ctx context.Context, p CreateMolliePaymentRequest) (*MolliePayment, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mollie payment: %w", err)
	}

	url := c.baseURL + "/v2/payments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build mollie request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *MollieClient) do(req *http.Request) (*MolliePayment, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mollie request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a little of the body for context, never the auth header.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mollie responded %d: %s", resp.StatusCode, string(snippet))
	}

	var payment MolliePayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode mollie payment: %w", err)
	}
	return &payment, nil
}
