package flutterwave

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

type TransferRequest struct {
	BankCode      string
	AccountNumber string
	AmountKobo    int64
	Reference     string // caller-supplied idempotency key
	Narration     string
	// DebitAccountReference is the payout subaccount the transfer is funded
	// from (the agent's receiving account), not the collection subaccount.
	DebitAccountReference string
}

type Transfer struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"` // "NEW", "PENDING", "SUCCESSFUL", "FAILED"
	Message   string `json:"complete_message"`
}

type transferReq struct {
	AccountBank     string  `json:"account_bank"`
	AccountNumber   string  `json:"account_number"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	Reference       string  `json:"reference"`
	Narration       string  `json:"narration,omitempty"`
	DebitSubAccount string  `json:"debit_subaccount,omitempty"`
}

// InitiateTransfer starts a payout to a real bank account. The reference is
// an idempotency key at the gateway: re-sending the same reference never
// moves money twice, so a timed-out attempt must keep its reference if it is
// ever retried.
func (c *Client) InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	body := transferReq{
		AccountBank:     req.BankCode,
		AccountNumber:   req.AccountNumber,
		Amount:          naira(req.AmountKobo),
		Currency:        "NGN",
		Reference:       req.Reference,
		Narration:       req.Narration,
		DebitSubAccount: req.DebitAccountReference,
	}
	log.Printf("[Flutterwave] transfer ref=%s amount_kobo=%d bank=%s acct=%s", req.Reference, req.AmountKobo, req.BankCode, req.AccountNumber)
	var out Transfer
	if err := c.do(ctx, http.MethodPost, "/v3/transfers", body, &out); err != nil {
		return nil, fmt.Errorf("initiate transfer: %w", err)
	}
	return &out, nil
}

// GetTransfer fetches the current state of a transfer.
func (c *Client) GetTransfer(ctx context.Context, id int64) (*Transfer, error) {
	var out Transfer
	if err := c.do(ctx, http.MethodGet, "/v3/transfers/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, fmt.Errorf("get transfer %d: %w", id, err)
	}
	return &out, nil
}
