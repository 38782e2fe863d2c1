package service

import (
	"errors"
	"testing"
	"time"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"

	"gorm.io/gorm"
)

func newPromotionFixture(t *testing.T) (*PromotionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewPromotionService(repository.NewPromotionRepository(db), repository.NewHouseRepository(db))
	return svc, db
}

func seedHouse(t *testing.T, db *gorm.DB, ownerID uint) *models.House {
	t.Helper()
	h := &models.House{UserID: ownerID, Title: "3 bed terrace"}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("seed house: %v", err)
	}
	return h
}

func TestActivateByPaymentRefOpensWindow(t *testing.T) {
	svc, db := newPromotionFixture(t)
	house := seedHouse(t, db, 1)
	promo, err := svc.Create(1, house.ID, 14, 2_000_000, "https://cdn.test/banner.jpg")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promo.Status != domain.PromotionStatusPending {
		t.Fatalf("expected PENDING, got %s", promo.Status)
	}
	if err := svc.AttachPaymentRef(promo.ID, "pr-abc"); err != nil {
		t.Fatalf("attach ref: %v", err)
	}

	if err := svc.ActivateByPaymentRef("pr-abc"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	var got models.Promotion
	if err := db.First(&got, promo.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.PromotionStatusActive {
		t.Fatalf("expected ACTIVE, got %s", got.Status)
	}
	if !got.WindowContains(time.Now()) {
		t.Fatal("window should contain now")
	}
	firstEnd := *got.EndDate

	var h models.House
	db.First(&h, house.ID)
	if !h.Featured {
		t.Fatal("expected house featured")
	}

	// A replayed verification must not re-open the window.
	if err := svc.ActivateByPaymentRef("pr-abc"); err != nil {
		t.Fatalf("re-activate: %v", err)
	}
	db.First(&got, promo.ID)
	if !got.EndDate.Equal(firstEnd) {
		t.Fatalf("window moved on re-activation: %v vs %v", got.EndDate, firstEnd)
	}
}

func TestExpireDueUnfeaturesOnlyWhenLastCover(t *testing.T) {
	svc, db := newPromotionFixture(t)
	house := seedHouse(t, db, 1)

	now := time.Now()
	past := now.Add(-48 * time.Hour)
	lapsed := now.Add(-time.Hour)
	future := now.Add(72 * time.Hour)

	// One lapsed, one still covering the same house.
	a := &models.Promotion{HouseID: house.ID, UserID: 1, Days: 1, AmountKobo: 100, Status: domain.PromotionStatusActive, StartDate: &past, EndDate: &lapsed}
	b := &models.Promotion{HouseID: house.ID, UserID: 1, Days: 7, AmountKobo: 100, Status: domain.PromotionStatusActive, StartDate: &past, EndDate: &future}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed a: %v", err)
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("seed b: %v", err)
	}
	db.Model(&models.House{}).Where("id = ?", house.ID).UpdateColumn("featured", true)

	n, err := svc.ExpireDue()
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	var h models.House
	db.First(&h, house.ID)
	if !h.Featured {
		t.Fatal("house must stay featured while another promotion covers it")
	}

	// Lapse the second promotion too; now the house loses its feature.
	db.Model(&models.Promotion{}).Where("id = ?", b.ID).UpdateColumn("end_date", now.Add(-time.Minute))
	if n, err = svc.ExpireDue(); err != nil || n != 1 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
	db.First(&h, house.ID)
	if h.Featured {
		t.Fatal("house should be unfeatured after the last promotion expires")
	}
}

func TestCancelActiveRequiresAdmin(t *testing.T) {
	svc, db := newPromotionFixture(t)
	house := seedHouse(t, db, 1)
	now := time.Now()
	end := now.Add(48 * time.Hour)
	p := &models.Promotion{HouseID: house.ID, UserID: 1, Days: 2, AmountKobo: 100, Status: domain.PromotionStatusActive, StartDate: &now, EndDate: &end}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	db.Model(&models.House{}).Where("id = ?", house.ID).UpdateColumn("featured", true)

	if err := svc.Cancel(p.ID, false); !errors.Is(err, ErrPromotionActive) {
		t.Fatalf("expected ErrPromotionActive for owner cancel, got %v", err)
	}
	if err := svc.Cancel(p.ID, true); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	var got models.Promotion
	db.First(&got, p.ID)
	if got.Status != domain.PromotionStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", got.Status)
	}
	var h models.House
	db.First(&h, house.ID)
	if h.Featured {
		t.Fatal("expected house unfeatured after the only promotion was cancelled")
	}
	// Cancelling again is a no-op.
	if err := svc.Cancel(p.ID, false); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
}

func TestCancelPendingByOwner(t *testing.T) {
	svc, db := newPromotionFixture(t)
	house := seedHouse(t, db, 1)
	p, err := svc.Create(1, house.ID, 3, 100, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Cancel(p.ID, false); err != nil {
		t.Fatalf("owner cancel of pending: %v", err)
	}
}

func TestTrackClick(t *testing.T) {
	svc, db := newPromotionFixture(t)
	house := seedHouse(t, db, 1)
	p, err := svc.Create(1, house.ID, 3, 100, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.TrackClick(p.ID); err != nil {
			t.Fatalf("click %d: %v", i+1, err)
		}
	}
	var got models.Promotion
	db.First(&got, p.ID)
	if got.Clicks != 3 {
		t.Fatalf("expected 3 clicks, got %d", got.Clicks)
	}
}
