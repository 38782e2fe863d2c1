package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is a payment intent created at initialization time. ProviderRef is
// our tx_ref at the gateway; it is unique so verification can be replayed
// safely from both the redirect callback and the webhook.
type Payment struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"` // payer
	AgentID     uint   `gorm:"not null;index" json:"agent_id"`
	HouseID     uint   `gorm:"index" json:"house_id"`
	AmountKobo  int64  `gorm:"not null" json:"amount_kobo"`
	Currency    string `gorm:"size:3;default:'NGN'" json:"currency"`
	Purpose     string `gorm:"size:20;not null;index" json:"purpose"` // VIEWING | PROMOTION
	ProviderRef string `gorm:"size:128;uniqueIndex;not null" json:"provider_ref"`
	GatewayRef  string `gorm:"size:128" json:"gateway_ref"` // gateway's own transaction id, set on verify
	Status      string `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED
	// SplitApplied records whether the agent's subaccount was attached at init
	// time; when false the full amount settles to the platform and must be
	// reconciled manually.
	SplitApplied bool `gorm:"default:false" json:"split_applied"`

	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string { return "payments" }
