package flutterwave

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// CollectionSubAccount is the gateway resource eligible to receive a split
// share of a payment. Keyed at the gateway by bank code + account number.
type CollectionSubAccount struct {
	ID            int64  `json:"id"`
	SubAccountRef string `json:"subaccount_id"` // "RS_..." id used in split configs
	AccountBank   string `json:"account_bank"`
	AccountNumber string `json:"account_number"`
	BusinessName  string `json:"business_name"`
}

type createSubAccountReq struct {
	AccountBank   string  `json:"account_bank"`
	AccountNumber string  `json:"account_number"`
	BusinessName  string  `json:"business_name"`
	BusinessEmail string  `json:"business_email,omitempty"`
	Country       string  `json:"country"`
	SplitType     string  `json:"split_type"`
	SplitValue    float64 `json:"split_value"`
}

// CreateCollectionSubAccount registers a split payee for the given bank
// account. splitShare is the default whole-number percentage routed to the
// subaccount when a payment does not override it.
func (c *Client) CreateCollectionSubAccount(ctx context.Context, bankCode, accountNumber, businessName, email string, splitShare int) (*CollectionSubAccount, error) {
	body := createSubAccountReq{
		AccountBank:   bankCode,
		AccountNumber: accountNumber,
		BusinessName:  businessName,
		BusinessEmail: email,
		Country:       "NG",
		SplitType:     "percentage",
		SplitValue:    float64(splitShare) / 100,
	}
	var out CollectionSubAccount
	if err := c.do(ctx, http.MethodPost, "/v3/subaccounts", body, &out); err != nil {
		return nil, fmt.Errorf("create subaccount: %w", err)
	}
	return &out, nil
}

// ListCollectionSubAccounts returns one page of collection subaccounts.
func (c *Client) ListCollectionSubAccounts(ctx context.Context, page int) ([]CollectionSubAccount, error) {
	var out []CollectionSubAccount
	path := fmt.Sprintf("/v3/subaccounts?page=%d", page)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list subaccounts page %d: %w", page, err)
	}
	return out, nil
}

// IsDuplicateSubAccount reports whether err is the gateway's rejection of a
// subaccount that already exists for the bank account.
func IsDuplicateSubAccount(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		// unwrap one level of fmt.Errorf wrapping
		type unwrapper interface{ Unwrap() error }
		if u, uok := err.(unwrapper); uok {
			apiErr, ok = u.Unwrap().(*APIError)
		}
		if !ok {
			return false
		}
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}
