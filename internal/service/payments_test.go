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

type paymentFixture struct {
	db       *gorm.DB
	gw       *stubGateway
	svc      *PaymentService
	promos   *PromotionService
	wallets  *repository.WalletRepository
	earnings *repository.EarningRepository
	viewings *repository.ViewingRepository
	payments *repository.PaymentRepository
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := newTestDB(t)
	gw := &stubGateway{}
	wallets := repository.NewWalletRepository(db)
	earnings := repository.NewEarningRepository(db)
	viewings := repository.NewViewingRepository(db)
	payments := repository.NewPaymentRepository(db)
	promos := NewPromotionService(repository.NewPromotionRepository(db), repository.NewHouseRepository(db))
	svc := NewPaymentService(
		gw, payments, earnings, wallets, repository.NewSettingRepository(db),
		viewings, promos, newTestNotifier(db, nil), 10, "https://rentora.test/callback",
	)
	return &paymentFixture{
		db: db, gw: gw, svc: svc, promos: promos,
		wallets: wallets, earnings: earnings, viewings: viewings, payments: payments,
	}
}

func (f *paymentFixture) seedViewingPayment(t *testing.T, agentID uint, grossKobo int64) string {
	t.Helper()
	ref := "vw-test-ref"
	house := &models.House{UserID: agentID, Title: "2 bed flat", ViewingFeeKobo: grossKobo}
	if err := f.db.Create(house).Error; err != nil {
		t.Fatalf("seed house: %v", err)
	}
	viewing := &models.Viewing{
		HouseID: house.ID, UserID: agentID + 100, FeeKobo: grossKobo,
		PaymentRef: ref, Status: domain.ViewingStatusRequested,
	}
	if err := f.db.Create(viewing).Error; err != nil {
		t.Fatalf("seed viewing: %v", err)
	}
	if err := f.payments.Create(&models.Payment{
		UserID: viewing.UserID, AgentID: agentID, HouseID: house.ID,
		AmountKobo: grossKobo, Purpose: domain.PaymentPurposeViewing,
		ProviderRef: ref, Status: domain.PaymentStatusPending,
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return ref
}

func TestVerifyAndCreditComputesFeeAndNet(t *testing.T) {
	f := newPaymentFixture(t)
	agent := seedAgent(t, f.db, 0)
	// ₦20,000 gross at the 10% default fee.
	ref := f.seedViewingPayment(t, agent.ID, 2_000_000)
	f.gw.verifyFn = func(txRef string) (*flutterwave.Transaction, error) {
		return &flutterwave.Transaction{TxRef: txRef, FlwRef: "FLW-1", Amount: 20000, Status: "successful"}, nil
	}

	p, err := f.svc.VerifyAndCredit(context.Background(), ref)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Status != domain.PaymentStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", p.Status)
	}

	e, err := f.earnings.GetByReference(ref)
	if err != nil {
		t.Fatalf("earning: %v", err)
	}
	if e.GrossKobo != 2_000_000 || e.FeeKobo != 200_000 || e.NetKobo != 1_800_000 {
		t.Fatalf("expected gross 2000000 fee 200000 net 1800000, got %d/%d/%d", e.GrossKobo, e.FeeKobo, e.NetKobo)
	}

	w, err := f.wallets.GetByUserID(agent.ID)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if w.BalanceKobo != 1_800_000 {
		t.Fatalf("expected wallet credited 1800000, got %d", w.BalanceKobo)
	}

	v, err := f.viewings.GetByPaymentRef(ref)
	if err != nil {
		t.Fatalf("viewing: %v", err)
	}
	if v.Status != domain.ViewingStatusPaid {
		t.Fatalf("expected viewing PAID, got %s", v.Status)
	}
}

func TestVerifyAndCreditIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	agent := seedAgent(t, f.db, 0)
	ref := f.seedViewingPayment(t, agent.ID, 500_000)
	calls := 0
	f.gw.verifyFn = func(txRef string) (*flutterwave.Transaction, error) {
		calls++
		return &flutterwave.Transaction{TxRef: txRef, Amount: 5000, Status: "successful"}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.VerifyAndCredit(context.Background(), ref); err != nil {
			t.Fatalf("verify %d: %v", i+1, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one gateway verify call, got %d", calls)
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 450_000 {
		t.Fatalf("expected a single credit of 450000, got %d", w.BalanceKobo)
	}
	var n int64
	f.db.Model(&models.Earning{}).Where("reference = ?", ref).Count(&n)
	if n != 1 {
		t.Fatalf("expected one earning row, got %d", n)
	}
}

func TestVerifyAndCreditUnsettledPayment(t *testing.T) {
	f := newPaymentFixture(t)
	agent := seedAgent(t, f.db, 0)
	ref := f.seedViewingPayment(t, agent.ID, 500_000)
	f.gw.verifyFn = func(txRef string) (*flutterwave.Transaction, error) {
		return &flutterwave.Transaction{TxRef: txRef, Status: "pending"}, nil
	}

	if _, err := f.svc.VerifyAndCredit(context.Background(), ref); !errors.Is(err, ErrPaymentNotSettled) {
		t.Fatalf("expected ErrPaymentNotSettled, got %v", err)
	}
	w, _ := f.wallets.GetByUserID(agent.ID)
	if w.BalanceKobo != 0 {
		t.Fatalf("unsettled payment must not credit, balance %d", w.BalanceKobo)
	}
}

func TestVerifyAndCreditUnknownReference(t *testing.T) {
	f := newPaymentFixture(t)
	if _, err := f.svc.VerifyAndCredit(context.Background(), "vw-missing"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestInitializeAttachesAgentShareNotFee(t *testing.T) {
	f := newPaymentFixture(t)
	agent := seedAgent(t, f.db, 0)
	if err := f.wallets.SaveSubAccount(agent.ID, 7, "RS_AGENT7"); err != nil {
		t.Fatalf("save subaccount: %v", err)
	}
	payer := seedAgent(t, f.db, 0)

	house := &models.House{UserID: agent.ID, Title: "duplex", ViewingFeeKobo: 300_000}
	if err := f.db.Create(house).Error; err != nil {
		t.Fatalf("seed house: %v", err)
	}
	viewing := &models.Viewing{HouseID: house.ID, UserID: payer.ID, FeeKobo: 300_000, Status: domain.ViewingStatusRequested}
	if err := f.db.Create(viewing).Error; err != nil {
		t.Fatalf("seed viewing: %v", err)
	}

	link, ref, err := f.svc.InitializeViewingPayment(context.Background(), viewing, payer, agent.ID)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if link == "" || ref == "" {
		t.Fatalf("expected link and reference, got %q %q", link, ref)
	}

	if len(f.gw.payments) != 1 {
		t.Fatalf("expected one gateway init, got %d", len(f.gw.payments))
	}
	split := f.gw.payments[0].Split
	if split == nil {
		t.Fatal("expected a split config")
	}
	if split.SubAccountRef != "RS_AGENT7" {
		t.Fatalf("split attached to %q", split.SubAccountRef)
	}
	// The agent share at a 10% platform fee is 90, never 10.
	if split.Share != 90 {
		t.Fatalf("expected agent share 90, got %d", split.Share)
	}

	p, err := f.payments.GetByProviderRef(ref)
	if err != nil {
		t.Fatalf("payment row: %v", err)
	}
	if !p.SplitApplied {
		t.Fatal("expected SplitApplied true")
	}
}

func TestInitializeWithoutSubAccountSkipsSplit(t *testing.T) {
	f := newPaymentFixture(t)
	agent := seedAgent(t, f.db, 0)
	payer := seedAgent(t, f.db, 0)

	house := &models.House{UserID: agent.ID, Title: "bungalow", ViewingFeeKobo: 100_000}
	if err := f.db.Create(house).Error; err != nil {
		t.Fatalf("seed house: %v", err)
	}
	viewing := &models.Viewing{HouseID: house.ID, UserID: payer.ID, FeeKobo: 100_000, Status: domain.ViewingStatusRequested}
	if err := f.db.Create(viewing).Error; err != nil {
		t.Fatalf("seed viewing: %v", err)
	}

	_, ref, err := f.svc.InitializeViewingPayment(context.Background(), viewing, payer, agent.ID)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if f.gw.payments[0].Split != nil {
		t.Fatal("expected no split without a subaccount")
	}
	p, _ := f.payments.GetByProviderRef(ref)
	if p.SplitApplied {
		t.Fatal("expected SplitApplied false")
	}
}

func TestPlatformFeePercentSettingsOverride(t *testing.T) {
	f := newPaymentFixture(t)
	settings := repository.NewSettingRepository(f.db)

	if got := f.svc.PlatformFeePercent(); got != 10 {
		t.Fatalf("expected default 10, got %d", got)
	}
	if err := settings.Set(domain.SettingPlatformFeePercent, "15"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := f.svc.PlatformFeePercent(); got != 15 {
		t.Fatalf("expected override 15, got %d", got)
	}
	// Out-of-range overrides fall back to the default.
	if err := settings.Set(domain.SettingPlatformFeePercent, "140"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := f.svc.PlatformFeePercent(); got != 10 {
		t.Fatalf("expected fallback 10 for out-of-range value, got %d", got)
	}
}

func TestVerifyPromotionPaymentActivates(t *testing.T) {
	f := newPaymentFixture(t)
	agent := seedAgent(t, f.db, 0)

	house := &models.House{UserID: agent.ID, Title: "penthouse"}
	if err := f.db.Create(house).Error; err != nil {
		t.Fatalf("seed house: %v", err)
	}
	promo, err := f.promos.Create(agent.ID, house.ID, 7, 1_000_000, "")
	if err != nil {
		t.Fatalf("create promo: %v", err)
	}

	_, ref, err := f.svc.InitializePromotionPayment(context.Background(), promo, agent)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	f.gw.verifyFn = func(txRef string) (*flutterwave.Transaction, error) {
		return &flutterwave.Transaction{TxRef: txRef, Amount: 10000, Status: "successful"}, nil
	}
	if _, err := f.svc.VerifyAndCredit(context.Background(), ref); err != nil {
		t.Fatalf("verify: %v", err)
	}

	var got models.Promotion
	if err := f.db.First(&got, promo.ID).Error; err != nil {
		t.Fatalf("reload promo: %v", err)
	}
	if got.Status != domain.PromotionStatusActive {
		t.Fatalf("expected ACTIVE, got %s", got.Status)
	}
	if got.StartDate == nil || got.EndDate == nil {
		t.Fatal("expected the date window to open")
	}
	if d := got.EndDate.Sub(*got.StartDate); d < 6*24*time.Hour {
		t.Fatalf("window shorter than the paid days: %v", d)
	}

	var h models.House
	if err := f.db.First(&h, house.ID).Error; err != nil {
		t.Fatalf("reload house: %v", err)
	}
	if !h.Featured {
		t.Fatal("expected house featured after activation")
	}
}
