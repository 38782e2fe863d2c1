package models

import (
	"time"

	"rentora/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	FullName     string         `gorm:"size:128;not null" json:"full_name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone        string         `gorm:"size:20" json:"phone"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // USER | AGENT | LANDLORD | ADMIN
	Verified     bool           `gorm:"default:false" json:"verified"`
	Suspended    bool           `gorm:"default:false" json:"suspended"`

	// Payout bank account (destination for withdrawals, and key for the
	// collection subaccount at the gateway).
	BankCode      string `gorm:"size:10" json:"bank_code"`
	BankName      string `gorm:"size:100" json:"bank_name"`
	AccountNumber string `gorm:"size:20" json:"account_number"`
	AccountName   string `gorm:"size:128" json:"account_name"`

	// Transaction PIN (withdrawal authorization, distinct from the login password).
	TransactionPinHash string     `gorm:"size:255" json:"-"`
	PinFailCount       int        `gorm:"default:0" json:"-"`
	PinLockedUntil     *time.Time `json:"-"`
	PinResetHash       string     `gorm:"size:255" json:"-"`
	PinResetExpiresAt  *time.Time `json:"-"`

	// Withdrawal OTP (fresh per attempt, short-lived).
	WithdrawOtpHash      string     `gorm:"size:255" json:"-"`
	WithdrawOtpExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *Wallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAgent() bool { return u.Role == domain.RoleAgent || u.Role == domain.RoleLandlord }
func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

// HasBankAccount reports whether a payout destination is on file.
func (u *User) HasBankAccount() bool {
	return u.BankCode != "" && u.AccountNumber != ""
}
