package models

import (
	"time"

	"gorm.io/gorm"
)

// Withdrawal records one withdrawal attempt. The destination bank is a
// snapshot taken at request time so later edits to the user's bank account
// don't rewrite history. Status transitions are the only mutation.
type Withdrawal struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	Reference  string `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	AmountKobo int64  `gorm:"not null" json:"amount_kobo"`

	// Destination snapshot.
	BankCode      string `gorm:"size:10" json:"bank_code"`
	BankName      string `gorm:"size:100" json:"bank_name"`
	AccountNumber string `gorm:"size:20" json:"account_number"`
	AccountName   string `gorm:"size:128" json:"account_name"`

	TransferID    string `gorm:"size:64" json:"transfer_id"` // empty on the manual path
	Status        string `gorm:"size:20;not null;index" json:"status"` // PENDING, PROCESSING, SUCCESSFUL, FAILED
	FailureReason string `gorm:"size:255" json:"failure_reason,omitempty"`
	AdminNote     string `gorm:"size:255" json:"admin_note,omitempty"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Withdrawal) TableName() string { return "withdrawals" }
