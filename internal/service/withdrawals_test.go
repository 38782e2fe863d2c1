package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"
	"rentora/pkg/flutterwave"

	"gorm.io/gorm"
)

type withdrawalFixture struct {
	db      *gorm.DB
	gw      *stubGateway
	svc     *WithdrawalService
	sec     *SecurityService
	users   *repository.UserRepository
	wallets *repository.WalletRepository
	wds     *repository.WithdrawalRepository
}

func newWithdrawalFixture(t *testing.T) *withdrawalFixture {
	t.Helper()
	db := newTestDB(t)
	gw := &stubGateway{}
	users := repository.NewUserRepository(db)
	wallets := repository.NewWalletRepository(db)
	wds := repository.NewWithdrawalRepository(db)
	notifier := newTestNotifier(db, nil)
	sec := NewSecurityService(users, notifier)
	svc := NewWithdrawalService(
		gw, wallets, wds, users, sec, repository.NewSettingRepository(db),
		notifier, 100_000, time.Second,
	)
	return &withdrawalFixture{db: db, gw: gw, svc: svc, sec: sec, users: users, wallets: wallets, wds: wds}
}

// armSecurity sets the agent's PIN and plants a known OTP.
func (f *withdrawalFixture) armSecurity(t *testing.T, userID uint) {
	t.Helper()
	if err := f.sec.SetPin(userID, "123456"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	exp := time.Now().Add(time.Minute)
	if err := f.users.UpdateFields(userID, map[string]interface{}{
		"withdraw_otp_hash":       hashCode("ABCD23"),
		"withdraw_otp_expires_at": &exp,
	}); err != nil {
		t.Fatalf("seed otp: %v", err)
	}
}

func (f *withdrawalFixture) provision(t *testing.T, userID uint, liveBalanceKobo int64) {
	t.Helper()
	if err := f.wallets.SaveVirtualAccount(userID, "psa_test", "9900112233", "Wema Bank"); err != nil {
		t.Fatalf("save virtual account: %v", err)
	}
	f.gw.balanceKobo = liveBalanceKobo
}

func TestRequestBelowMinimum(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	if _, _, err := f.svc.Request(context.Background(), agent.ID, 50_000, "123456", "ABCD23"); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
}

func TestRequestRejectsBadPinBeforeAnyStateChange(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)

	if _, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "000000", "ABCD23"); !errors.Is(err, ErrPinInvalid) {
		t.Fatalf("expected ErrPinInvalid, got %v", err)
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 1_000_000 {
		t.Fatalf("balance must be untouched, got %d", w.BalanceKobo)
	}
	var n int64
	f.db.Model(&models.Withdrawal{}).Count(&n)
	if n != 0 {
		t.Fatalf("no withdrawal row should exist, got %d", n)
	}
	// The OTP must survive a failed PIN so the user can retry.
	if err := f.sec.VerifyWithdrawOtp(agent.ID, "ABCD23"); err != nil {
		t.Fatalf("otp should still be valid: %v", err)
	}
}

func TestRequestTransferSuccess(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)

	wd, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if wd.Status != domain.WithdrawalStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", wd.Status)
	}
	if wd.TransferID == "" {
		t.Fatal("expected a transfer id")
	}
	if wd.BankCode != agent.BankCode || wd.AccountNumber != agent.AccountNumber {
		t.Fatal("withdrawal must snapshot the destination bank")
	}

	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 600_000 {
		t.Fatalf("expected cached balance 600000 after debit, got %d", w.BalanceKobo)
	}
	if len(f.gw.transfers) != 1 {
		t.Fatalf("expected one transfer, got %d", len(f.gw.transfers))
	}
	if got := f.gw.transfers[0].DebitAccountReference; got != "psa_test" {
		t.Fatalf("transfer must debit the receiving account, got %q", got)
	}
}

func TestRequestTransferFailureQueuesPending(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)
	f.gw.transferFn = func(req flutterwave.TransferRequest) (*flutterwave.Transfer, error) {
		return nil, &flutterwave.APIError{HTTPStatus: 400, Message: "IP whitelisting required"}
	}

	wd, msg, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("a transfer failure must not fail the request: %v", err)
	}
	if wd.Status != domain.WithdrawalStatusPending {
		t.Fatalf("expected PENDING, got %s", wd.Status)
	}
	if msg == "" {
		t.Fatal("expected a manual-queue message")
	}
	// Funds are held: the debit happened even though no transfer did.
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 600_000 {
		t.Fatalf("expected balance 600000, got %d", w.BalanceKobo)
	}
}

func TestRequestTransferTimeoutKeepsReference(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)
	f.gw.transferFn = func(req flutterwave.TransferRequest) (*flutterwave.Transfer, error) {
		return nil, context.DeadlineExceeded
	}

	wd, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if wd.Status != domain.WithdrawalStatusPending {
		t.Fatalf("expected PENDING after timeout, got %s", wd.Status)
	}
	if wd.AdminNote != "transfer timed out, outcome unknown" {
		t.Fatalf("expected the unknown-outcome note, got %q", wd.AdminNote)
	}
}

func TestRequestInsufficientLiveBalance(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	// Cache says ₦10,000 but the gateway only holds ₦3,000.
	f.provision(t, agent.ID, 300_000)

	if _, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23"); !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	// The live figure overwrites the stale cache.
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 300_000 {
		t.Fatalf("expected cache resynced to 300000, got %d", w.BalanceKobo)
	}
}

func TestSequentialWithdrawalsCannotOverdraw(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 500_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 500_000)

	// First ₦4,000 withdrawal from a ₦5,000 balance succeeds.
	if _, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	// Re-arm the OTP; the second ₦4,000 must fail on the remaining ₦1,000.
	f.armSecurity(t, agent.ID)
	if _, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23"); !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	var n int64
	f.db.Model(&models.Withdrawal{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected exactly one withdrawal row, got %d", n)
	}
}

func TestResyncKeepsPendingHolds(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)
	f.gw.transferFn = func(req flutterwave.TransferRequest) (*flutterwave.Transfer, error) {
		return nil, &flutterwave.APIError{HTTPStatus: 400, Message: "IP whitelisting required"}
	}

	// The transfer fails so ₦4,000 is held locally while the gateway still
	// reports the full ₦10,000.
	wd1, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if wd1.Status != domain.WithdrawalStatusPending {
		t.Fatalf("expected PENDING, got %s", wd1.Status)
	}

	// A second request resyncs against the live figure; the hold must be
	// netted out so ₦7,000 is no longer available.
	f.armSecurity(t, agent.ID)
	if _, _, err := f.svc.Request(context.Background(), agent.ID, 700_000, "123456", "ABCD23"); !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance past the hold, got %v", err)
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 600_000 {
		t.Fatalf("resync must not restore held funds, got %d", w.BalanceKobo)
	}

	// What does fit in the remainder still goes through, and the committed
	// total never exceeds what the gateway actually holds.
	f.armSecurity(t, agent.ID)
	if _, _, err := f.svc.Request(context.Background(), agent.ID, 500_000, "123456", "ABCD23"); err != nil {
		t.Fatalf("request within remainder: %v", err)
	}
	var committed int64
	f.db.Model(&models.Withdrawal{}).Select("COALESCE(SUM(amount_kobo), 0)").Scan(&committed)
	if committed > 1_000_000 {
		t.Fatalf("committed %d kobo against a real balance of 1000000", committed)
	}
}

func TestSuspendedAgentCanStillWithdraw(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	if err := f.users.UpdateFields(agent.ID, map[string]interface{}{"suspended": true}); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)

	// Suspension blocks new listings, not access to earned funds.
	wd, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("suspended agent must retain withdrawal rights: %v", err)
	}
	if wd.Status != domain.WithdrawalStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", wd.Status)
	}
}

func TestRequestWithoutVirtualAccountQueuesManually(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 800_000)
	f.armSecurity(t, agent.ID)

	wd, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if wd.Status != domain.WithdrawalStatusPending {
		t.Fatalf("expected PENDING without an automated path, got %s", wd.Status)
	}
	if len(f.gw.transfers) != 0 {
		t.Fatal("no transfer should be attempted without a virtual account")
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 400_000 {
		t.Fatalf("expected balance 400000 after hold, got %d", w.BalanceKobo)
	}
}

func TestManualDisburseFullBalance(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 750_000)

	wd, err := f.svc.ManualDisburse(context.Background(), agent.ID, 0, "")
	if err != nil {
		t.Fatalf("manual disburse: %v", err)
	}
	if wd.AmountKobo != 750_000 {
		t.Fatalf("expected full balance 750000, got %d", wd.AmountKobo)
	}
	if wd.Status != domain.WithdrawalStatusPending {
		t.Fatalf("expected PENDING, got %s", wd.Status)
	}
	if wd.AdminNote != "manual disbursement" {
		t.Fatalf("expected default note, got %q", wd.AdminNote)
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 0 {
		t.Fatalf("expected zero balance, got %d", w.BalanceKobo)
	}

	// An empty wallet cannot be disbursed again.
	if _, err := f.svc.ManualDisburse(context.Background(), agent.ID, 0, ""); !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestFinalizeFailureRefunds(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)

	wd, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := f.svc.Finalize(wd.Reference, "FAILED", "beneficiary account invalid"); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	got, err := f.wds.GetByReference(wd.Reference)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.WithdrawalStatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if got.FailureReason != "beneficiary account invalid" {
		t.Fatalf("expected failure reason recorded, got %q", got.FailureReason)
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 1_000_000 {
		t.Fatalf("expected refund back to 1000000, got %d", w.BalanceKobo)
	}

	// A terminal withdrawal cannot be finalized twice (no double refund).
	if err := f.svc.Finalize(wd.Reference, "FAILED", "again"); !errors.Is(err, ErrWithdrawalDone) {
		t.Fatalf("expected ErrWithdrawalDone, got %v", err)
	}
	w, _ = f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 1_000_000 {
		t.Fatalf("double finalize must not refund twice, got %d", w.BalanceKobo)
	}
}

func TestFinalizeSuccess(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	f.armSecurity(t, agent.ID)
	f.provision(t, agent.ID, 1_000_000)

	wd, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := f.svc.Finalize(wd.Reference, "SUCCESSFUL", ""); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	got, _ := f.wds.GetByReference(wd.Reference)
	if got.Status != domain.WithdrawalStatusSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatal("expected CompletedAt set")
	}
	// Success must not touch the balance again.
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 600_000 {
		t.Fatalf("expected balance 600000, got %d", w.BalanceKobo)
	}
}

func TestMarkDisbursed(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 500_000)

	wd, err := f.svc.ManualDisburse(context.Background(), agent.ID, 0, "weekly payout run")
	if err != nil {
		t.Fatalf("manual disburse: %v", err)
	}
	if err := f.svc.MarkDisbursed(wd.Reference, true, "paid via bank portal"); err != nil {
		t.Fatalf("mark disbursed: %v", err)
	}
	got, _ := f.wds.GetByReference(wd.Reference)
	if got.Status != domain.WithdrawalStatusSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %s", got.Status)
	}
}

func TestMinWithdrawalSettingsOverride(t *testing.T) {
	f := newWithdrawalFixture(t)
	agent := seedAgent(t, f.db, 1_000_000)
	settings := repository.NewSettingRepository(f.db)
	if err := settings.Set(domain.SettingMinWithdrawalKobo, "500000"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := f.svc.Request(context.Background(), agent.ID, 400_000, "123456", "ABCD23"); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum under raised minimum, got %v", err)
	}
}
