package flutterwave

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
)

// SplitConfig routes a portion of a payment to a collection subaccount.
// Share is the whole-number percentage of the payment credited to the
// SUBACCOUNT (the agent); the remainder implicitly settles to the platform.
// Handing the platform's fee percentage to this field inverts the split.
type SplitConfig struct {
	SubAccountRef string
	Share         int
}

type PaymentRequest struct {
	TxRef         string
	AmountKobo    int64
	Currency      string
	RedirectURL   string
	CustomerEmail string
	CustomerName  string
	Split         *SplitConfig // nil = no split, full amount to platform
}

type PaymentLink struct {
	Link string `json:"link"`
}

type paymentCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type paymentSubAccount struct {
	ID                    string  `json:"id"`
	TransactionChargeType string  `json:"transaction_charge_type"`
	TransactionCharge     float64 `json:"transaction_charge"` // fraction of the payment routed to the subaccount
}

type paymentInitReq struct {
	TxRef       string              `json:"tx_ref"`
	Amount      float64             `json:"amount"`
	Currency    string              `json:"currency"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	Customer    paymentCustomer     `json:"customer"`
	SubAccounts []paymentSubAccount `json:"subaccounts,omitempty"`
}

// InitializePayment creates a hosted payment and returns the checkout link.
func (c *Client) InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentLink, error) {
	if req.Currency == "" {
		req.Currency = "NGN"
	}
	body := paymentInitReq{
		TxRef:       req.TxRef,
		Amount:      naira(req.AmountKobo),
		Currency:    req.Currency,
		RedirectURL: req.RedirectURL,
		Customer:    paymentCustomer{Email: req.CustomerEmail, Name: req.CustomerName},
	}
	if req.Split != nil {
		body.SubAccounts = []paymentSubAccount{{
			ID:                    req.Split.SubAccountRef,
			TransactionChargeType: "percentage",
			TransactionCharge:     float64(req.Split.Share) / 100,
		}}
	}
	log.Printf("[Flutterwave] init payment tx_ref=%s amount_kobo=%d split=%v", req.TxRef, req.AmountKobo, req.Split != nil)
	var out PaymentLink
	if err := c.do(ctx, http.MethodPost, "/v3/payments", body, &out); err != nil {
		return nil, fmt.Errorf("init payment: %w", err)
	}
	return &out, nil
}

// Transaction is the verification result for a payment.
type Transaction struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	FlwRef   string  `json:"flw_ref"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"` // "successful", "failed", "pending"
}

// Successful reports whether the transaction settled.
func (t *Transaction) Successful() bool { return t.Status == "successful" }

// AmountKobo returns the settled amount in kobo.
func (t *Transaction) AmountKobo() int64 { return kobo(t.Amount) }

// VerifyByReference confirms a transaction's real status with the gateway.
// Callers must treat the answer, never the webhook payload, as authoritative.
func (c *Client) VerifyByReference(ctx context.Context, txRef string) (*Transaction, error) {
	var out Transaction
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("verify %s: %w", txRef, err)
	}
	return &out, nil
}
