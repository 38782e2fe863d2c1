// Package flutterwave is a minimal client for the parts of the Flutterwave v3
// API the settlement engine uses: hosted payment initialization with split
// subaccounts, transaction verification, payout subaccounts (virtual
// receiving accounts), collection subaccounts, transfers and balances.
//
// Amounts cross this boundary in kobo (int64) and are converted to the
// gateway's naira figures internally.
package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type Client struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.flutterwave.com"
	}
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the standard Flutterwave response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a non-success response from the gateway.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flutterwave: %d %s", e.HTTPStatus, e.Message)
}

// do sends one authenticated request and decodes data into out (may be nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		log.Printf("[Flutterwave] %s %s unparseable response status=%d body=%s", method, path, resp.StatusCode, string(respBody))
		return fmt.Errorf("flutterwave: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || env.Status != "success" {
		log.Printf("[Flutterwave] %s %s error status=%d message=%q", method, path, resp.StatusCode, env.Message)
		return &APIError{HTTPStatus: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("flutterwave: decode data: %w", err)
		}
	}
	return nil
}

// naira converts kobo to the naira figure the API expects.
func naira(kobo int64) float64 { return float64(kobo) / 100 }

// kobo converts a naira figure from the API to kobo.
func kobo(n float64) int64 { return int64(n*100 + 0.5) }
