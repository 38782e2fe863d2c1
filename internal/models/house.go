package models

import (
	"time"

	"gorm.io/gorm"
)

type House struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"not null;index" json:"user_id"` // owning agent/landlord
	Title          string `gorm:"size:255;not null" json:"title"`
	Address        string `gorm:"size:255" json:"address"`
	PriceKobo      int64  `gorm:"not null;default:0" json:"price_kobo"`
	ViewingFeeKobo int64  `gorm:"not null;default:0" json:"viewing_fee_kobo"`
	Featured       bool   `gorm:"default:false;index" json:"featured"`
	Flagged        bool   `gorm:"default:false" json:"flagged"`
	FlagReason     string `gorm:"size:255" json:"flag_reason,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (House) TableName() string { return "houses" }
