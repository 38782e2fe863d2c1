package repository

import (
	"rentora/internal/domain"
	"rentora/internal/models"

	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(w *models.Withdrawal) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByReference(ref string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.Where("reference = ?", ref).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByTransferID(transferID string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.Where("transfer_id = ?", transferID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) Update(w *models.Withdrawal) error {
	return r.db.Save(w).Error
}

// SumHeldByUser totals the user's PENDING withdrawals. Those rows are debited
// locally but their funds have not left the gateway, so the gateway's live
// balance still contains them.
func (r *WithdrawalRepository) SumHeldByUser(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Withdrawal{}).
		Where("user_id = ? AND status = ?", userID, domain.WithdrawalStatusPending).
		Select("COALESCE(SUM(amount_kobo), 0)").
		Scan(&total).Error
	return total, err
}

func (r *WithdrawalRepository) ListByUser(userID uint, limit, offset int) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *WithdrawalRepository) List(limit, offset int) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *WithdrawalRepository) ListByStatus(status string, limit, offset int) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&list).Error
	return list, err
}
