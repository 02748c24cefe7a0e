package payment

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OrderOpener opens an order with the external payment processor and
// returns its opaque order identifier. The core never computes signatures
// through the processor, it only verifies them locally.
type OrderOpener interface {
	OpenOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

type restOrderOpener struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewRESTOrderOpener talks to the processor's order-open endpoint using
// basic auth API keys.
func NewRESTOrderOpener(baseURL, keyID, keySecret string) OrderOpener {
	return &restOrderOpener{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *restOrderOpener) OpenOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("processor orders: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("processor orders: request build: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("processor orders: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var errBody struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("processor orders: status %d: %s", resp.StatusCode, errBody.Error.Description)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("processor orders: decode: %w", err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("processor orders: empty order id")
	}
	return payload.ID, nil
}

// StubOrderOpener mints local order ids. Used in dev when no processor is
// configured and in tests.
type StubOrderOpener struct{}

func (StubOrderOpener) OpenOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("stub orders: %w", err)
	}
	return "order_" + hex.EncodeToString(buf), nil
}
