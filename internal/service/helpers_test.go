package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"
	"rentora/pkg/flutterwave"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.User{}, &models.Wallet{}, &models.House{}, &models.Viewing{},
		&models.Payment{}, &models.Earning{}, &models.Withdrawal{},
		&models.Promotion{}, &models.Notification{}, &models.SystemSetting{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestNotifier(db *gorm.DB, mailer Mailer) *Notifier {
	return NewNotifier(repository.NewNotificationRepository(db), repository.NewUserRepository(db), mailer)
}

var seedSeq atomic.Int64

func seedAgent(t *testing.T, db *gorm.DB, balanceKobo int64) *models.User {
	t.Helper()
	u := &models.User{
		FullName:      "Ada Agent",
		Email:         fmt.Sprintf("agent%d@example.com", seedSeq.Add(1)),
		Role:          domain.RoleAgent,
		BankCode:      "058",
		BankName:      "GTBank",
		AccountNumber: "0123456789",
		AccountName:   "Ada Agent",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	w := &models.Wallet{UserID: u.ID, BalanceKobo: balanceKobo}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return u
}

// captureMailer records sends on a channel so tests can wait for the async
// email dispatch.
type captureMailer struct {
	bodies chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{bodies: make(chan string, 8)}
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.bodies <- body
	return nil
}

// stubGateway satisfies Gateway with overridable funcs and a mutable virtual
// account balance that transfers draw down, mirroring the real gateway.
type stubGateway struct {
	mu          sync.Mutex
	balanceKobo int64
	transfers   []flutterwave.TransferRequest
	payments    []flutterwave.PaymentRequest

	initPaymentFn      func(req flutterwave.PaymentRequest) (*flutterwave.PaymentLink, error)
	verifyFn           func(txRef string) (*flutterwave.Transaction, error)
	transferFn         func(req flutterwave.TransferRequest) (*flutterwave.Transfer, error)
	balanceFn          func(ref string) (*flutterwave.Balance, error)
	createPayoutFn     func(name, email string) (*flutterwave.PayoutSubAccount, error)
	listPayoutFn       func(page int) ([]flutterwave.PayoutSubAccount, error)
	createCollectionFn func(bankCode, accountNumber string) (*flutterwave.CollectionSubAccount, error)
	listCollectionFn   func(page int) ([]flutterwave.CollectionSubAccount, error)
}

func (g *stubGateway) InitializePayment(_ context.Context, req flutterwave.PaymentRequest) (*flutterwave.PaymentLink, error) {
	g.mu.Lock()
	g.payments = append(g.payments, req)
	g.mu.Unlock()
	if g.initPaymentFn != nil {
		return g.initPaymentFn(req)
	}
	return &flutterwave.PaymentLink{Link: "https://checkout.test/" + req.TxRef}, nil
}

func (g *stubGateway) VerifyByReference(_ context.Context, txRef string) (*flutterwave.Transaction, error) {
	if g.verifyFn != nil {
		return g.verifyFn(txRef)
	}
	return &flutterwave.Transaction{TxRef: txRef, Status: "pending"}, nil
}

func (g *stubGateway) CreatePayoutSubAccount(_ context.Context, name, email, _ string) (*flutterwave.PayoutSubAccount, error) {
	if g.createPayoutFn != nil {
		return g.createPayoutFn(name, email)
	}
	return &flutterwave.PayoutSubAccount{
		ID:               1,
		AccountReference: "psa_" + email,
		Email:            email,
		AccountName:      name,
		Nuban:            "9900112233",
		BankName:         "Wema Bank",
	}, nil
}

func (g *stubGateway) ListPayoutSubAccounts(_ context.Context, page int) ([]flutterwave.PayoutSubAccount, error) {
	if g.listPayoutFn != nil {
		return g.listPayoutFn(page)
	}
	return nil, nil
}

func (g *stubGateway) GetBalance(_ context.Context, ref string) (*flutterwave.Balance, error) {
	if g.balanceFn != nil {
		return g.balanceFn(ref)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return &flutterwave.Balance{AvailableKobo: g.balanceKobo, LedgerKobo: g.balanceKobo}, nil
}

func (g *stubGateway) CreateCollectionSubAccount(_ context.Context, bankCode, accountNumber, businessName, _ string, _ int) (*flutterwave.CollectionSubAccount, error) {
	if g.createCollectionFn != nil {
		return g.createCollectionFn(bankCode, accountNumber)
	}
	return &flutterwave.CollectionSubAccount{
		ID:            7,
		SubAccountRef: "RS_TEST" + accountNumber,
		AccountBank:   bankCode,
		AccountNumber: accountNumber,
		BusinessName:  businessName,
	}, nil
}

func (g *stubGateway) ListCollectionSubAccounts(_ context.Context, page int) ([]flutterwave.CollectionSubAccount, error) {
	if g.listCollectionFn != nil {
		return g.listCollectionFn(page)
	}
	return nil, nil
}

func (g *stubGateway) InitiateTransfer(_ context.Context, req flutterwave.TransferRequest) (*flutterwave.Transfer, error) {
	if g.transferFn != nil {
		return g.transferFn(req)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.balanceKobo < req.AmountKobo {
		return nil, &flutterwave.APIError{HTTPStatus: 400, Message: "insufficient balance"}
	}
	g.balanceKobo -= req.AmountKobo
	g.transfers = append(g.transfers, req)
	return &flutterwave.Transfer{ID: int64(len(g.transfers)), Reference: req.Reference, Status: "NEW"}, nil
}
