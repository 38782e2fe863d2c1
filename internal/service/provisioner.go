package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"rentora/internal/models"
	"rentora/internal/repository"
	"rentora/pkg/flutterwave"
)

// maxProvisionPages caps pagination against the gateway's listing endpoints
// so a misbehaving paginator can't spin us forever.
const maxProvisionPages = 10

var ErrNoBankAccount = errors.New("no bank account on file")

// Provisioner ensures each agent has the two gateway identities: a receiving
// virtual account (payout subaccount) and a collection split subaccount.
// They are persisted in distinct wallet columns and never substituted for
// each other.
type Provisioner struct {
	gw      Gateway
	wallets *repository.WalletRepository
	// defaultShare is the agent share registered on new collection
	// subaccounts; per-payment split configs override it.
	defaultShare int
}

func NewProvisioner(gw Gateway, wallets *repository.WalletRepository, defaultAgentShare int) *Provisioner {
	return &Provisioner{gw: gw, wallets: wallets, defaultShare: defaultAgentShare}
}

// EnsureVirtualAccount returns the agent's wallet with a provisioned
// receiving account. Idempotent: an already-provisioned wallet is returned
// unchanged; otherwise the gateway's existing accounts are searched by email
// before a new one is created.
func (p *Provisioner) EnsureVirtualAccount(ctx context.Context, user *models.User) (*models.Wallet, error) {
	w, err := p.wallets.GetOrCreate(user.ID)
	if err != nil {
		return nil, err
	}
	if w.HasVirtualAccount() {
		return w, nil
	}

	acct, err := p.findPayoutAccountByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		acct, err = p.gw.CreatePayoutSubAccount(ctx, user.FullName, user.Email, user.Phone)
		if err != nil {
			return nil, err
		}
		log.Printf("[Provision] created virtual account ref=%s for user %d", acct.AccountReference, user.ID)
	} else {
		log.Printf("[Provision] adopted existing virtual account ref=%s for user %d", acct.AccountReference, user.ID)
	}
	if err := p.wallets.SaveVirtualAccount(user.ID, acct.AccountReference, acct.Nuban, acct.BankName); err != nil {
		return nil, err
	}
	return p.wallets.GetByUserID(user.ID)
}

func (p *Provisioner) findPayoutAccountByEmail(ctx context.Context, email string) (*flutterwave.PayoutSubAccount, error) {
	for page := 1; page <= maxProvisionPages; page++ {
		accounts, err := p.gw.ListPayoutSubAccounts(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			return nil, nil
		}
		for i := range accounts {
			if strings.EqualFold(accounts[i].Email, email) {
				return &accounts[i], nil
			}
		}
	}
	log.Printf("[Provision] payout account search hit page cap (%d) for %s", maxProvisionPages, email)
	return nil, nil
}

// EnsureSubAccount ensures the collection split subaccount exists for the
// agent's bank account. Best-effort by contract: callers log and continue on
// error, since payments can still be initialized without a split (the full
// amount then settles to the platform for manual reconciliation).
func (p *Provisioner) EnsureSubAccount(ctx context.Context, user *models.User) error {
	if !user.HasBankAccount() {
		return ErrNoBankAccount
	}
	w, err := p.wallets.GetOrCreate(user.ID)
	if err != nil {
		return err
	}
	if w.HasSubAccount() {
		return nil
	}

	sub, err := p.gw.CreateCollectionSubAccount(ctx, user.BankCode, user.AccountNumber, user.AccountName, user.Email, p.defaultShare)
	if err != nil {
		if !flutterwave.IsDuplicateSubAccount(err) {
			return err
		}
		// The gateway keys these by bank code + account number, not email;
		// adopt the existing one.
		sub, err = p.findSubAccountByBank(ctx, user.BankCode, user.AccountNumber)
		if err != nil {
			return err
		}
		if sub == nil {
			return errors.New("subaccount reported as duplicate but not found in listing")
		}
	}
	log.Printf("[Provision] subaccount ref=%s id=%d for user %d", sub.SubAccountRef, sub.ID, user.ID)
	return p.wallets.SaveSubAccount(user.ID, sub.ID, sub.SubAccountRef)
}

func (p *Provisioner) findSubAccountByBank(ctx context.Context, bankCode, accountNumber string) (*flutterwave.CollectionSubAccount, error) {
	for page := 1; page <= maxProvisionPages; page++ {
		subs, err := p.gw.ListCollectionSubAccounts(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(subs) == 0 {
			return nil, nil
		}
		for i := range subs {
			if subs[i].AccountBank == bankCode && subs[i].AccountNumber == accountNumber {
				return &subs[i], nil
			}
		}
	}
	return nil, nil
}
