package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"
	"rentora/pkg/flutterwave"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentNotSettled = errors.New("payment not settled at gateway")
)

// PaymentService initializes split payments and verifies them. The split is
// always configured with the AGENT's share; the platform share is the
// implicit remainder and is never itself forwarded anywhere.
type PaymentService struct {
	gw        Gateway
	payments  *repository.PaymentRepository
	earnings  *repository.EarningRepository
	wallets   *repository.WalletRepository
	settings  *repository.SettingRepository
	viewings  *repository.ViewingRepository
	promos    *PromotionService
	notifier  *Notifier

	defaultFeePercent int64
	redirectURL       string
}

func NewPaymentService(
	gw Gateway,
	payments *repository.PaymentRepository,
	earnings *repository.EarningRepository,
	wallets *repository.WalletRepository,
	settings *repository.SettingRepository,
	viewings *repository.ViewingRepository,
	promos *PromotionService,
	notifier *Notifier,
	defaultFeePercent int64,
	redirectURL string,
) *PaymentService {
	return &PaymentService{
		gw:       gw,
		payments: payments,
		earnings: earnings,
		wallets:  wallets,
		settings: settings,
		viewings: viewings,
		promos:   promos,
		notifier: notifier,

		defaultFeePercent: defaultFeePercent,
		redirectURL:       redirectURL,
	}
}

// PlatformFeePercent resolves the fee once per request: settings row if
// present and sane, otherwise the configured default.
func (s *PaymentService) PlatformFeePercent() int64 {
	fee := s.settings.GetInt(domain.SettingPlatformFeePercent, s.defaultFeePercent)
	if fee < 0 || fee > 100 {
		return s.defaultFeePercent
	}
	return fee
}

// InitializeViewingPayment creates a payment intent for a viewing fee and
// returns the gateway checkout link.
func (s *PaymentService) InitializeViewingPayment(ctx context.Context, viewing *models.Viewing, payer *models.User, agentID uint) (string, string, error) {
	ref := "vw-" + uuid.New().String()
	link, split, err := s.initialize(ctx, ref, viewing.FeeKobo, payer, agentID)
	if err != nil {
		return "", "", err
	}
	if err := s.payments.Create(&models.Payment{
		UserID:       payer.ID,
		AgentID:      agentID,
		HouseID:      viewing.HouseID,
		AmountKobo:   viewing.FeeKobo,
		Purpose:      domain.PaymentPurposeViewing,
		ProviderRef:  ref,
		Status:       domain.PaymentStatusPending,
		SplitApplied: split,
	}); err != nil {
		return "", "", err
	}
	viewing.PaymentRef = ref
	if err := s.viewings.Update(viewing); err != nil {
		return "", "", err
	}
	return link, ref, nil
}

// InitializePromotionPayment creates a payment intent for a promotion.
func (s *PaymentService) InitializePromotionPayment(ctx context.Context, promo *models.Promotion, payer *models.User) (string, string, error) {
	ref := "pr-" + uuid.New().String()
	link, split, err := s.initialize(ctx, ref, promo.AmountKobo, payer, promo.UserID)
	if err != nil {
		return "", "", err
	}
	if err := s.payments.Create(&models.Payment{
		UserID:       payer.ID,
		AgentID:      promo.UserID,
		HouseID:      promo.HouseID,
		AmountKobo:   promo.AmountKobo,
		Purpose:      domain.PaymentPurposePromotion,
		ProviderRef:  ref,
		Status:       domain.PaymentStatusPending,
		SplitApplied: split,
	}); err != nil {
		return "", "", err
	}
	if err := s.promos.AttachPaymentRef(promo.ID, ref); err != nil {
		return "", "", err
	}
	return link, ref, nil
}

// initialize builds the gateway request. The returned bool reports whether a
// split was attached; without a subaccount the payment still goes through and
// the full amount settles to the platform for manual reconciliation.
func (s *PaymentService) initialize(ctx context.Context, ref string, amountKobo int64, payer *models.User, agentID uint) (string, bool, error) {
	req := flutterwave.PaymentRequest{
		TxRef:         ref,
		AmountKobo:    amountKobo,
		Currency:      "NGN",
		RedirectURL:   s.redirectURL,
		CustomerEmail: payer.Email,
		CustomerName:  payer.FullName,
	}
	split := false
	w, err := s.wallets.GetByUserID(agentID)
	if err == nil && w.HasSubAccount() {
		// Agent share, not the platform fee. Handing the fee percentage to
		// the gateway here would route the fee to the agent.
		req.Split = &flutterwave.SplitConfig{
			SubAccountRef: w.SubAccountRef,
			Share:         int(100 - s.PlatformFeePercent()),
		}
		split = true
	} else {
		log.Printf("[Payment] no subaccount for agent %d, initializing %s without split", agentID, ref)
	}
	link, err := s.gw.InitializePayment(ctx, req)
	if err != nil {
		return "", false, err
	}
	return link.Link, split, nil
}

// VerifyAndCredit confirms a payment with the gateway and credits the agent's
// wallet with the net amount, exactly once per reference. Safe to invoke from
// both the redirect callback and the webhook: a reference that already has an
// Earning row is a no-op.
func (s *PaymentService) VerifyAndCredit(ctx context.Context, ref string) (*models.Payment, error) {
	p, err := s.payments.GetByProviderRef(ref)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	if credited, err := s.earnings.ExistsByReference(ref); err != nil {
		return nil, err
	} else if credited {
		return p, nil
	}

	tx, err := s.gw.VerifyByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !tx.Successful() {
		if p.Status == domain.PaymentStatusPending && tx.Status == "failed" {
			p.Status = domain.PaymentStatusFailed
			_ = s.payments.Update(p)
		}
		return nil, ErrPaymentNotSettled
	}

	gross := tx.AmountKobo()
	feePercent := s.PlatformFeePercent()
	fee := gross * feePercent / 100
	net := gross - fee

	earning := &models.Earning{
		UserID:    p.AgentID,
		HouseID:   p.HouseID,
		GrossKobo: gross,
		FeeKobo:   fee,
		NetKobo:   net,
		Source:    p.Purpose,
		Reference: ref,
	}
	if err := s.earnings.Create(earning); err != nil {
		// A concurrent verify may have won the unique-reference race; that
		// invocation owns the credit.
		if credited, cerr := s.earnings.ExistsByReference(ref); cerr == nil && credited {
			return p, nil
		}
		return nil, err
	}
	if err := s.wallets.Credit(p.AgentID, net); err != nil {
		return nil, fmt.Errorf("credit wallet after earning %s: %w", ref, err)
	}

	now := time.Now()
	p.Status = domain.PaymentStatusCompleted
	p.GatewayRef = tx.FlwRef
	p.CompletedAt = &now
	if err := s.payments.Update(p); err != nil {
		log.Printf("[Payment] mark %s completed failed: %v", ref, err)
	}

	s.settleSideEffects(p, ref)
	s.notifier.NotifyEarning(p.AgentID, net, p.Purpose, ref)
	log.Printf("[Payment] verified %s gross=%d fee=%d net=%d agent=%d", ref, gross, fee, net, p.AgentID)
	return p, nil
}

func (s *PaymentService) settleSideEffects(p *models.Payment, ref string) {
	switch p.Purpose {
	case domain.PaymentPurposeViewing:
		v, err := s.viewings.GetByPaymentRef(ref)
		if err == nil && v.Status == domain.ViewingStatusRequested {
			v.Status = domain.ViewingStatusPaid
			if uerr := s.viewings.Update(v); uerr != nil {
				log.Printf("[Payment] mark viewing %d paid failed: %v", v.ID, uerr)
			}
		}
	case domain.PaymentPurposePromotion:
		if err := s.promos.ActivateByPaymentRef(ref); err != nil {
			log.Printf("[Payment] activate promotion for %s failed: %v", ref, err)
		}
	}
}
