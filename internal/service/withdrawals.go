package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"
	"rentora/pkg/flutterwave"

	"github.com/google/uuid"
)

var (
	ErrBelowMinimum   = errors.New("amount is below the minimum withdrawal")
	ErrNoBankOnFile   = errors.New("add a bank account before withdrawing")
	ErrWithdrawalDone = errors.New("withdrawal already finalized")
)

// WithdrawalService is the state machine that moves wallet funds to a real
// bank account: requested -> security check -> balance verified ->
// processing (automated transfer) or pending (manual queue) -> successful |
// failed.
type WithdrawalService struct {
	gw          Gateway
	wallets     *repository.WalletRepository
	withdrawals *repository.WithdrawalRepository
	users       *repository.UserRepository
	security    *SecurityService
	settings    *repository.SettingRepository
	notifier    *Notifier

	defaultMinKobo  int64
	transferTimeout time.Duration

	// Per-agent serialization of the balance-check-then-debit window. The
	// conditional debit in the wallet repository backs this up at the SQL
	// layer, but holding the lock keeps the gateway round-trips of two
	// concurrent requests from interleaving.
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewWithdrawalService(
	gw Gateway,
	wallets *repository.WalletRepository,
	withdrawals *repository.WithdrawalRepository,
	users *repository.UserRepository,
	security *SecurityService,
	settings *repository.SettingRepository,
	notifier *Notifier,
	defaultMinKobo int64,
	transferTimeout time.Duration,
) *WithdrawalService {
	if transferTimeout <= 0 {
		transferTimeout = 15 * time.Second
	}
	return &WithdrawalService{
		gw:              gw,
		wallets:         wallets,
		withdrawals:     withdrawals,
		users:           users,
		security:        security,
		settings:        settings,
		notifier:        notifier,
		defaultMinKobo:  defaultMinKobo,
		transferTimeout: transferTimeout,
		locks:           make(map[uint]*sync.Mutex),
	}
}

func (s *WithdrawalService) agentLock(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

func (s *WithdrawalService) minWithdrawalKobo() int64 {
	return s.settings.GetInt(domain.SettingMinWithdrawalKobo, s.defaultMinKobo)
}

// Request runs a full withdrawal attempt. Security failures abort before any
// state changes and before any Withdrawal row exists. After the live balance
// is verified, a gateway transfer failure (or timeout: unknown outcome) is
// NOT surfaced as a hard failure: the verified amount is debited and the
// withdrawal queued as PENDING for manual disbursement.
func (s *WithdrawalService) Request(ctx context.Context, userID uint, amountKobo int64, pin, otp string) (*models.Withdrawal, string, error) {
	if amountKobo < s.minWithdrawalKobo() {
		return nil, "", ErrBelowMinimum
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, "", err
	}
	if !u.HasBankAccount() {
		return nil, "", ErrNoBankOnFile
	}

	// PIN proves authorization, OTP proves freshness. Both must pass before
	// any funds move or are marked pending.
	if err := s.security.VerifyPin(userID, pin); err != nil {
		return nil, "", err
	}
	if err := s.security.VerifyWithdrawOtp(userID, otp); err != nil {
		return nil, "", err
	}

	lock := s.agentLock(userID)
	lock.Lock()
	defer lock.Unlock()

	w, err := s.wallets.GetOrCreate(userID)
	if err != nil {
		return nil, "", err
	}

	// Confirm against the gateway's live figure, then close the staleness
	// window by resyncing the cache. Without a provisioned receiving account
	// there is no live figure; the cached balance (guarded by the
	// conditional debit) is the best available check and the attempt goes
	// straight to the manual queue.
	if w.HasVirtualAccount() {
		bal, err := s.gw.GetBalance(ctx, w.AccountReference)
		if err != nil {
			return nil, "", fmt.Errorf("fetch live balance: %w", err)
		}
		// PENDING withdrawals are already debited locally but their funds
		// are still sitting at the gateway, so the live figure must not be
		// trusted raw: netting the holds out keeps a queued manual
		// disbursement from being committed a second time.
		held, err := s.withdrawals.SumHeldByUser(userID)
		if err != nil {
			return nil, "", err
		}
		available := bal.AvailableKobo - held
		if available < 0 {
			available = 0
		}
		if err := s.wallets.SyncBalance(userID, available); err != nil {
			return nil, "", err
		}
		if available < amountKobo {
			return nil, "", repository.ErrInsufficientBalance
		}
	} else if w.BalanceKobo < amountKobo {
		return nil, "", repository.ErrInsufficientBalance
	}

	ref := "wd-" + uuid.New().String()
	if !w.HasVirtualAccount() {
		wd, err := s.debitAndRecord(u, amountKobo, ref, "", domain.WithdrawalStatusPending, "no automated payout path")
		if err != nil {
			return nil, "", err
		}
		s.notifier.NotifyWithdrawalQueued(userID, amountKobo, ref)
		return wd, "Withdrawal received. Funds are held and will be disbursed manually.", nil
	}

	tctx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()
	transfer, terr := s.gw.InitiateTransfer(tctx, flutterwave.TransferRequest{
		BankCode:              u.BankCode,
		AccountNumber:         u.AccountNumber,
		AmountKobo:            amountKobo,
		Reference:             ref,
		Narration:             "Rentora wallet withdrawal",
		DebitAccountReference: w.AccountReference,
	})
	if terr != nil {
		// Environmental, not logical: the balance is verified real. A
		// timeout is an unknown outcome and takes the same path; the
		// reference stays reserved so a retry can never double-transfer.
		log.Printf("[Withdrawal] transfer init failed for user %d ref=%s: %v", userID, ref, terr)
		wd, err := s.debitAndRecord(u, amountKobo, ref, "", domain.WithdrawalStatusPending, transferFailureNote(terr))
		if err != nil {
			return nil, "", err
		}
		s.notifier.NotifyWithdrawalQueued(userID, amountKobo, ref)
		return wd, "Withdrawal received. Funds are held and will be disbursed manually.", nil
	}

	wd, err := s.debitAndRecord(u, amountKobo, ref, fmt.Sprintf("%d", transfer.ID), domain.WithdrawalStatusProcessing, "")
	if err != nil {
		return nil, "", err
	}
	s.notifier.NotifyWithdrawalProcessing(userID, amountKobo, ref)
	return wd, "Withdrawal is being processed to your bank account.", nil
}

// debitAndRecord is the single debit primitive: the cached balance is only
// ever decremented together with the creation of a Withdrawal row, and the
// debit is rolled back if that row cannot be written. Used by the automated
// path, the manual fallback and admin disbursement alike.
func (s *WithdrawalService) debitAndRecord(u *models.User, amountKobo int64, ref, transferID, status, note string) (*models.Withdrawal, error) {
	if err := s.wallets.Debit(u.ID, amountKobo); err != nil {
		return nil, err
	}
	wd := &models.Withdrawal{
		UserID:        u.ID,
		Reference:     ref,
		AmountKobo:    amountKobo,
		BankCode:      u.BankCode,
		BankName:      u.BankName,
		AccountNumber: u.AccountNumber,
		AccountName:   u.AccountName,
		TransferID:    transferID,
		Status:        status,
		AdminNote:     note,
	}
	if err := s.withdrawals.Create(wd); err != nil {
		if cerr := s.wallets.Credit(u.ID, amountKobo); cerr != nil {
			log.Printf("[Withdrawal] refund after record failure for user %d: %v", u.ID, cerr)
		}
		return nil, err
	}
	return wd, nil
}

// ManualDisburse is the admin-invoked path for agents whose automated payout
// is structurally unavailable. It re-checks sufficiency through the same
// debit primitive as the automated path.
func (s *WithdrawalService) ManualDisburse(ctx context.Context, userID uint, amountKobo int64, note string) (*models.Withdrawal, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if !u.HasBankAccount() {
		return nil, ErrNoBankOnFile
	}
	lock := s.agentLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if amountKobo <= 0 {
		w, err := s.wallets.GetOrCreate(userID)
		if err != nil {
			return nil, err
		}
		amountKobo = w.BalanceKobo
	}
	if amountKobo <= 0 {
		return nil, repository.ErrInsufficientBalance
	}
	if note == "" {
		note = "manual disbursement"
	}
	ref := "wd-" + uuid.New().String()
	wd, err := s.debitAndRecord(u, amountKobo, ref, "", domain.WithdrawalStatusPending, note)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyWithdrawalQueued(userID, amountKobo, ref)
	return wd, nil
}

// Finalize applies a terminal transfer outcome (from the transfer webhook).
// A failure refunds the debited amount and says so in the notification.
func (s *WithdrawalService) Finalize(reference, status, reason string) error {
	wd, err := s.withdrawals.GetByReference(reference)
	if err != nil {
		return err
	}
	switch wd.Status {
	case domain.WithdrawalStatusSuccessful, domain.WithdrawalStatusFailed:
		return ErrWithdrawalDone
	}
	if strings.EqualFold(status, "SUCCESSFUL") {
		now := time.Now()
		wd.Status = domain.WithdrawalStatusSuccessful
		wd.CompletedAt = &now
		if err := s.withdrawals.Update(wd); err != nil {
			return err
		}
		s.notifier.NotifyWithdrawalSuccessful(wd.UserID, wd.AmountKobo, wd.Reference)
		return nil
	}
	wd.Status = domain.WithdrawalStatusFailed
	wd.FailureReason = reason
	if err := s.withdrawals.Update(wd); err != nil {
		return err
	}
	if err := s.wallets.Credit(wd.UserID, wd.AmountKobo); err != nil {
		log.Printf("[Withdrawal] refund for failed %s: %v", wd.Reference, err)
	}
	s.notifier.NotifyWithdrawalFailed(wd.UserID, wd.AmountKobo, wd.Reference, reason)
	return nil
}

// MarkDisbursed finalizes a manually-queued withdrawal after an admin has
// paid it out (or marks it failed, refunding the wallet).
func (s *WithdrawalService) MarkDisbursed(withdrawalRef string, success bool, note string) error {
	status := "SUCCESSFUL"
	if !success {
		status = "FAILED"
	}
	return s.Finalize(withdrawalRef, status, note)
}

func transferFailureNote(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "transfer timed out, outcome unknown"
	}
	var apiErr *flutterwave.APIError
	if errors.As(err, &apiErr) {
		return "gateway rejected transfer: " + apiErr.Message
	}
	return "gateway transfer failed"
}
