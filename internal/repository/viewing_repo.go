package repository

import (
	"rentora/internal/models"

	"gorm.io/gorm"
)

type ViewingRepository struct {
	db *gorm.DB
}

func NewViewingRepository(db *gorm.DB) *ViewingRepository {
	return &ViewingRepository{db: db}
}

func (r *ViewingRepository) Create(v *models.Viewing) error {
	return r.db.Create(v).Error
}

func (r *ViewingRepository) GetByID(id uint) (*models.Viewing, error) {
	var v models.Viewing
	err := r.db.First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ViewingRepository) GetByPaymentRef(ref string) (*models.Viewing, error) {
	var v models.Viewing
	err := r.db.Where("payment_ref = ?", ref).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ViewingRepository) Update(v *models.Viewing) error {
	return r.db.Save(v).Error
}
