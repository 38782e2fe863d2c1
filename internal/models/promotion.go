package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion is a paid listing boost. A house is featured iff it has at least
// one ACTIVE promotion whose date window contains now.
type Promotion struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	HouseID    uint       `gorm:"not null;index" json:"house_id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	BannerURL  string     `gorm:"size:512" json:"banner_url"`
	StartDate  *time.Time `gorm:"index" json:"start_date"`
	EndDate    *time.Time `gorm:"index" json:"end_date"`
	Days       int        `gorm:"not null" json:"days"`
	AmountKobo int64      `gorm:"not null" json:"amount_kobo"`
	PaymentRef string     `gorm:"size:128;index" json:"payment_ref"`
	Status     string     `gorm:"size:20;not null;index" json:"status"` // PENDING, ACTIVE, EXPIRED, CANCELLED
	Clicks     int64      `gorm:"default:0" json:"clicks"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	House House `gorm:"foreignKey:HouseID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

func (Promotion) TableName() string { return "promotions" }

// WindowContains reports whether the promotion's date window covers t.
func (p *Promotion) WindowContains(t time.Time) bool {
	if p.StartDate == nil || p.EndDate == nil {
		return false
	}
	return !t.Before(*p.StartDate) && !t.After(*p.EndDate)
}
