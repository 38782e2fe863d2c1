package repository

import (
	"errors"

	"rentora/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	w = &models.Wallet{UserID: userID, BalanceKobo: 0, Currency: "NGN"}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// Credit adds amountKobo to the cached balance as a single SQL increment.
func (r *WalletRepository) Credit(userID uint, amountKobo int64) error {
	if _, err := r.GetOrCreate(userID); err != nil {
		return err
	}
	return r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		UpdateColumn("balance_kobo", gorm.Expr("balance_kobo + ?", amountKobo)).Error
}

// Debit decrements the cached balance only if it still covers amountKobo.
// The guard runs inside the UPDATE so two concurrent debits can never both
// pass against the same pre-debit figure. This is the only balance-decrement
// primitive; withdrawals (automated and manual) all go through it.
func (r *WalletRepository) Debit(userID uint, amountKobo int64) error {
	res := r.db.Model(&models.Wallet{}).
		Where("user_id = ? AND balance_kobo >= ?", userID, amountKobo).
		UpdateColumn("balance_kobo", gorm.Expr("balance_kobo - ?", amountKobo))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// SyncBalance overwrites the cached balance with the gateway's live figure.
func (r *WalletRepository) SyncBalance(userID uint, liveBalanceKobo int64) error {
	return r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		UpdateColumn("balance_kobo", liveBalanceKobo).Error
}

// SaveVirtualAccount persists the receiving account identity.
func (r *WalletRepository) SaveVirtualAccount(userID uint, accountRef, accountNumber, bankName string) error {
	return r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"account_reference":      accountRef,
			"virtual_account_number": accountNumber,
			"virtual_bank_name":      bankName,
		}).Error
}

// SaveSubAccount persists the collection split subaccount identity.
func (r *WalletRepository) SaveSubAccount(userID uint, subAccountID int64, subAccountRef string) error {
	return r.db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"sub_account_id":  subAccountID,
			"sub_account_ref": subAccountRef,
		}).Error
}

// ListFundedWithoutPayoutAccount returns wallets with a positive cached
// balance but no virtual receiving account, i.e. agents whose automated
// payout path is structurally unavailable.
func (r *WalletRepository) ListFundedWithoutPayoutAccount() ([]models.Wallet, error) {
	var list []models.Wallet
	err := r.db.Preload("User").
		Where("balance_kobo > 0 AND (account_reference = '' OR account_reference IS NULL)").
		Order("balance_kobo DESC").
		Find(&list).Error
	return list, err
}
