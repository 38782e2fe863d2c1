package service

import (
	"context"

	"rentora/pkg/flutterwave"
)

// Gateway is the payment-gateway surface the settlement engine depends on.
// *flutterwave.Client satisfies it; tests substitute stubs.
type Gateway interface {
	InitializePayment(ctx context.Context, req flutterwave.PaymentRequest) (*flutterwave.PaymentLink, error)
	VerifyByReference(ctx context.Context, txRef string) (*flutterwave.Transaction, error)
	CreatePayoutSubAccount(ctx context.Context, name, email, mobile string) (*flutterwave.PayoutSubAccount, error)
	ListPayoutSubAccounts(ctx context.Context, page int) ([]flutterwave.PayoutSubAccount, error)
	GetBalance(ctx context.Context, accountReference string) (*flutterwave.Balance, error)
	CreateCollectionSubAccount(ctx context.Context, bankCode, accountNumber, businessName, email string, splitShare int) (*flutterwave.CollectionSubAccount, error)
	ListCollectionSubAccounts(ctx context.Context, page int) ([]flutterwave.CollectionSubAccount, error)
	InitiateTransfer(ctx context.Context, req flutterwave.TransferRequest) (*flutterwave.Transfer, error)
}
