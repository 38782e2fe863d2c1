package service

import (
	"errors"
	"log"
	"time"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"
)

var (
	ErrPromotionNotPending = errors.New("promotion is not awaiting payment")
	ErrPromotionActive     = errors.New("an active promotion cannot be cancelled")
)

// PromotionService drives the promotion lifecycle:
// pending -> active (payment-gated) -> expired | cancelled.
type PromotionService struct {
	promos *repository.PromotionRepository
	houses *repository.HouseRepository
	now    func() time.Time
}

func NewPromotionService(promos *repository.PromotionRepository, houses *repository.HouseRepository) *PromotionService {
	return &PromotionService{promos: promos, houses: houses, now: time.Now}
}

// Create records a pending promotion before its payment is confirmed.
func (s *PromotionService) Create(userID, houseID uint, days int, amountKobo int64, bannerURL string) (*models.Promotion, error) {
	p := &models.Promotion{
		HouseID:    houseID,
		UserID:     userID,
		BannerURL:  bannerURL,
		Days:       days,
		AmountKobo: amountKobo,
		Status:     domain.PromotionStatusPending,
	}
	if err := s.promos.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AttachPaymentRef links the gateway reference created at payment init.
func (s *PromotionService) AttachPaymentRef(promoID uint, ref string) error {
	p, err := s.promos.GetByID(promoID)
	if err != nil {
		return err
	}
	p.PaymentRef = ref
	return s.promos.Update(p)
}

// ActivateByPaymentRef flips a pending promotion to active once its payment
// has been verified, opening the date window and featuring the house.
func (s *PromotionService) ActivateByPaymentRef(ref string) error {
	p, err := s.promos.GetByPaymentRef(ref)
	if err != nil {
		return err
	}
	if p.Status != domain.PromotionStatusPending {
		// Re-verification of the same payment must not re-open the window.
		return nil
	}
	now := s.now()
	end := now.AddDate(0, 0, p.Days)
	p.Status = domain.PromotionStatusActive
	p.StartDate = &now
	p.EndDate = &end
	if err := s.promos.Update(p); err != nil {
		return err
	}
	if err := s.houses.SetFeatured(p.HouseID, true); err != nil {
		log.Printf("[Promotion] feature house %d failed: %v", p.HouseID, err)
	}
	return nil
}

// ExpireDue sweeps active promotions whose window has closed. A house stays
// featured while any other active, still-in-window promotion covers it.
func (s *PromotionService) ExpireDue() (int, error) {
	now := s.now()
	due, err := s.promos.ListActiveExpired(now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range due {
		p := &due[i]
		p.Status = domain.PromotionStatusExpired
		if err := s.promos.Update(p); err != nil {
			log.Printf("[Promotion] expire %d failed: %v", p.ID, err)
			continue
		}
		expired++
		s.unfeatureIfLast(p, now)
	}
	return expired, nil
}

// Cancel cancels a promotion. Active promotions may only be cancelled by an
// administrator; cancelling the last covering promotion unfeatures the house.
func (s *PromotionService) Cancel(promoID uint, byAdmin bool) error {
	p, err := s.promos.GetByID(promoID)
	if err != nil {
		return err
	}
	switch p.Status {
	case domain.PromotionStatusExpired, domain.PromotionStatusCancelled:
		return nil
	case domain.PromotionStatusActive:
		if !byAdmin {
			return ErrPromotionActive
		}
	}
	wasActive := p.Status == domain.PromotionStatusActive
	p.Status = domain.PromotionStatusCancelled
	if err := s.promos.Update(p); err != nil {
		return err
	}
	if wasActive {
		s.unfeatureIfLast(p, s.now())
	}
	return nil
}

// TrackClick bumps the promotion's click counter.
func (s *PromotionService) TrackClick(promoID uint) error {
	return s.promos.IncrementClicks(promoID)
}

func (s *PromotionService) unfeatureIfLast(p *models.Promotion, now time.Time) {
	n, err := s.promos.CountOtherActiveForHouse(p.HouseID, p.ID, now)
	if err != nil {
		log.Printf("[Promotion] active count for house %d failed: %v", p.HouseID, err)
		return
	}
	if n == 0 {
		if err := s.houses.SetFeatured(p.HouseID, false); err != nil {
			log.Printf("[Promotion] unfeature house %d failed: %v", p.HouseID, err)
		}
	}
}
