package flutterwave

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PayoutSubAccount is the gateway's receiving identity for an agent: a
// dedicated virtual bank account plus the account_reference used for balance
// queries and transfer debits. It is NOT the collection split subaccount.
type PayoutSubAccount struct {
	ID               int64  `json:"id"`
	AccountReference string `json:"account_reference"`
	Email            string `json:"email"`
	AccountName      string `json:"account_name"`
	Nuban            string `json:"nuban"`
	BankName         string `json:"bank_name"`
	BankCode         string `json:"bank_code"`
	Status           string `json:"status"`
}

type createPayoutSubAccountReq struct {
	AccountName  string `json:"account_name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobilenumber,omitempty"`
	Country      string `json:"country"`
}

// CreatePayoutSubAccount provisions a virtual receiving account for an agent.
func (c *Client) CreatePayoutSubAccount(ctx context.Context, name, email, mobile string) (*PayoutSubAccount, error) {
	body := createPayoutSubAccountReq{
		AccountName:  name,
		Email:        email,
		MobileNumber: mobile,
		Country:      "NG",
	}
	var out PayoutSubAccount
	if err := c.do(ctx, http.MethodPost, "/v3/payout-subaccounts", body, &out); err != nil {
		return nil, fmt.Errorf("create payout subaccount: %w", err)
	}
	return &out, nil
}

// ListPayoutSubAccounts returns one page of existing payout subaccounts.
// Pages start at 1; an empty page marks the end of the list.
func (c *Client) ListPayoutSubAccounts(ctx context.Context, page int) ([]PayoutSubAccount, error) {
	var out []PayoutSubAccount
	path := fmt.Sprintf("/v3/payout-subaccounts?page=%d", page)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list payout subaccounts page %d: %w", page, err)
	}
	return out, nil
}

type payoutBalance struct {
	Currency         string  `json:"currency"`
	AvailableBalance float64 `json:"available_balance"`
	LedgerBalance    float64 `json:"ledger_balance"`
}

// Balance holds a payout subaccount's live balances, in kobo.
type Balance struct {
	AvailableKobo int64
	LedgerKobo    int64
}

// GetBalance fetches the live balance for a payout subaccount reference.
// This, not the local cache, is the authoritative balance.
func (c *Client) GetBalance(ctx context.Context, accountReference string) (*Balance, error) {
	var out payoutBalance
	path := fmt.Sprintf("/v3/payout-subaccounts/%s/balances?currency=NGN", url.PathEscape(accountReference))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("balance %s: %w", accountReference, err)
	}
	return &Balance{
		AvailableKobo: kobo(out.AvailableBalance),
		LedgerKobo:    kobo(out.LedgerBalance),
	}, nil
}
