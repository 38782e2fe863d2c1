package repository

import (
	"errors"

	"rentora/internal/models"

	"gorm.io/gorm"
)

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

func (r *EarningRepository) Create(e *models.Earning) error {
	return r.db.Create(e).Error
}

func (r *EarningRepository) GetByReference(ref string) (*models.Earning, error) {
	var e models.Earning
	err := r.db.Where("reference = ?", ref).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ExistsByReference reports whether a payment reference has already been
// credited. Used as the idempotency guard for verification replays.
func (r *EarningRepository) ExistsByReference(ref string) (bool, error) {
	_, err := r.GetByReference(ref)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (r *EarningRepository) ListByUser(userID uint, limit, offset int) ([]models.Earning, error) {
	var list []models.Earning
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// EarningStats is an aggregate over a user's earnings history.
type EarningStats struct {
	Count     int64 `json:"count"`
	GrossKobo int64 `json:"gross_kobo"`
	FeeKobo   int64 `json:"fee_kobo"`
	NetKobo   int64 `json:"net_kobo"`
}

func (r *EarningRepository) StatsByUser(userID uint) (*EarningStats, error) {
	var s EarningStats
	err := r.db.Model(&models.Earning{}).
		Where("user_id = ?", userID).
		Select("COUNT(*) AS count, COALESCE(SUM(gross_kobo),0) AS gross_kobo, COALESCE(SUM(fee_kobo),0) AS fee_kobo, COALESCE(SUM(net_kobo),0) AS net_kobo").
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
