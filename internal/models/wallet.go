package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet caches an agent's balance and holds the two gateway identities.
// AccountReference identifies the receiving virtual account (payout side);
// SubAccountID identifies the collection subaccount used for payment splits.
// They are different gateway resources and are never interchangeable.
type Wallet struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	UserID      uint  `gorm:"uniqueIndex;not null" json:"user_id"`
	BalanceKobo int64 `gorm:"not null;default:0" json:"balance_kobo"`

	// Receiving virtual account (gateway payout subaccount).
	AccountReference     string `gorm:"size:64;index" json:"account_reference"`
	VirtualAccountNumber string `gorm:"size:20" json:"virtual_account_number"`
	VirtualBankName      string `gorm:"size:100" json:"virtual_bank_name"`

	// Collection split subaccount (keyed at the gateway by bank code + account number).
	SubAccountID  int64  `gorm:"default:0" json:"sub_account_id"`
	SubAccountRef string `gorm:"size:64" json:"sub_account_ref"`

	Currency  string         `gorm:"size:3;default:'NGN'" json:"currency"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string { return "wallets" }

// HasVirtualAccount reports whether the receiving account has been provisioned.
func (w *Wallet) HasVirtualAccount() bool { return w.AccountReference != "" }

// HasSubAccount reports whether the split subaccount exists (automated payout path).
func (w *Wallet) HasSubAccount() bool { return w.SubAccountRef != "" }
