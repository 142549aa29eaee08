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

const defaultTimeout = 10 * time.Second

// Client talks to the processor's REST API. Every call is bounded by
// the HTTP client timeout so a hung gateway cannot stall a transition.
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: defaultTimeout},
	}
}

type checkoutRequest struct {
	Mode               string            `json:"mode"`
	AmountCents        int64             `json:"amount_cents"`
	Currency           string            `json:"currency"`
	ApplicationFee     int64             `json:"application_fee_cents"`
	DestinationAccount string            `json:"destination_account"`
	Metadata           map[string]string `json:"metadata"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	req := checkoutRequest{
		Mode:               "payment",
		AmountCents:        params.AmountCents,
		Currency:           params.Currency,
		ApplicationFee:     params.PlatformFeeCents,
		DestinationAccount: params.DestinationAccountID,
		Metadata: map[string]string{
			"booking_id":  params.BookingID,
			"customer_id": params.CustomerID,
		},
	}

	var resp checkoutResponse
	if err := c.post(ctx, "/v1/checkout/sessions", req, &resp); err != nil {
		return nil, err
	}

	return &CheckoutSession{SessionID: resp.ID, RedirectURL: resp.URL}, nil
}

func (c *Client) Refund(ctx context.Context, paymentIntentID string) error {
	req := map[string]string{"payment_intent": paymentIntentID}
	return c.post(ctx, "/v1/refunds", req, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrGateway, path, resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
	}
	return nil
}
