package models

import (
	"time"

	"gorm.io/gorm"
)

// Earning is an append-only record of a wallet credit. One row per verified
// payment reference; rows are never mutated after creation.
type Earning struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	HouseID   uint   `gorm:"index" json:"house_id"`
	GrossKobo int64  `gorm:"not null" json:"gross_kobo"`
	FeeKobo   int64  `gorm:"not null" json:"fee_kobo"`
	NetKobo   int64  `gorm:"not null" json:"net_kobo"`
	Source    string `gorm:"size:20;not null;index" json:"source"` // VIEWING | PROMOTION
	Reference string `gorm:"size:128;uniqueIndex;not null" json:"reference"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Earning) TableName() string { return "earnings" }
