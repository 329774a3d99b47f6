// Package payqr talks to the payment-QR service. The POS supplies an amount
// and the merchant id and gets back an opaque payload to render.
package payqr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

type Provider interface {
	Payload(ctx context.Context, merchantID string, amount decimal.Decimal) (string, error)
}

type payloadRequest struct {
	MerchantID string          `json:"merchant_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type payloadResponse struct {
	Payload string `json:"payload"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Payload(ctx context.Context, merchantID string, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(payloadRequest{MerchantID: merchantID, Amount: amount})
	if err != nil {
		return "", errors.Wrap(err, "marshal qr request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/payloads", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build qr request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "qr service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("qr service returned status %d", resp.StatusCode)
	}
	var out payloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode qr response")
	}
	return out.Payload, nil
}

// Disabled is used when no QR service is configured; it yields no payload.
type Disabled struct{}

func (Disabled) Payload(context.Context, string, decimal.Decimal) (string, error) { return "", nil }
