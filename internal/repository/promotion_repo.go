package repository

import (
	"time"

	"rentora/internal/domain"
	"rentora/internal/models"

	"gorm.io/gorm"
)

type PromotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

func (r *PromotionRepository) Create(p *models.Promotion) error {
	return r.db.Create(p).Error
}

func (r *PromotionRepository) GetByID(id uint) (*models.Promotion, error) {
	var p models.Promotion
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromotionRepository) GetByPaymentRef(ref string) (*models.Promotion, error) {
	var p models.Promotion
	err := r.db.Where("payment_ref = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromotionRepository) Update(p *models.Promotion) error {
	return r.db.Save(p).Error
}

// ListActiveExpired returns ACTIVE promotions whose end date has passed.
func (r *PromotionRepository) ListActiveExpired(now time.Time) ([]models.Promotion, error) {
	var list []models.Promotion
	err := r.db.Where("status = ? AND end_date < ?", domain.PromotionStatusActive, now).
		Find(&list).Error
	return list, err
}

// CountOtherActiveForHouse counts ACTIVE promotions for a house, still within
// their window, excluding promotion excludeID. Zero means the house should
// lose its featured flag when excludeID leaves ACTIVE.
func (r *PromotionRepository) CountOtherActiveForHouse(houseID, excludeID uint, now time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.Promotion{}).
		Where("house_id = ? AND id <> ? AND status = ? AND start_date <= ? AND end_date >= ?",
			houseID, excludeID, domain.PromotionStatusActive, now, now).
		Count(&n).Error
	return n, err
}

func (r *PromotionRepository) ListByUser(userID uint, limit, offset int) ([]models.Promotion, error) {
	var list []models.Promotion
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// IncrementClicks bumps the click counter in a single statement.
func (r *PromotionRepository) IncrementClicks(id uint) error {
	return r.db.Model(&models.Promotion{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}
