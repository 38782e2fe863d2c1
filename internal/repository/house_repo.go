package repository

import (
	"rentora/internal/models"

	"gorm.io/gorm"
)

type HouseRepository struct {
	db *gorm.DB
}

func NewHouseRepository(db *gorm.DB) *HouseRepository {
	return &HouseRepository{db: db}
}

func (r *HouseRepository) Create(h *models.House) error {
	return r.db.Create(h).Error
}

func (r *HouseRepository) GetByID(id uint) (*models.House, error) {
	var h models.House
	err := r.db.First(&h, id).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HouseRepository) Update(h *models.House) error {
	return r.db.Save(h).Error
}

func (r *HouseRepository) SetFeatured(houseID uint, featured bool) error {
	return r.db.Model(&models.House{}).
		Where("id = ?", houseID).
		UpdateColumn("featured", featured).Error
}

func (r *HouseRepository) Flag(houseID uint, reason string) error {
	return r.db.Model(&models.House{}).
		Where("id = ?", houseID).
		Updates(map[string]interface{}{"flagged": true, "flag_reason": reason}).Error
}

func (r *HouseRepository) ListByOwner(userID uint) ([]models.House, error) {
	var list []models.House
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}
