package models

import (
	"time"

	"gorm.io/gorm"
)

// Viewing is a scheduled property viewing; its fee payment is what feeds the
// split payment router for the owning agent.
type Viewing struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	HouseID     uint       `gorm:"not null;index" json:"house_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"` // requesting user
	ScheduledAt *time.Time `json:"scheduled_at"`
	FeeKobo     int64      `gorm:"not null" json:"fee_kobo"`
	PaymentRef  string     `gorm:"size:128;index" json:"payment_ref"`
	Status      string     `gorm:"size:20;not null;index" json:"status"` // REQUESTED, PAID, COMPLETED

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	House House `gorm:"foreignKey:HouseID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

func (Viewing) TableName() string { return "viewings" }
