package database

import (
	"strconv"

	"rentora/config"
	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.House{},
		&models.Viewing{},
		&models.Payment{},
		&models.Earning{},
		&models.Withdrawal{},
		&models.Promotion{},
		&models.Notification{},
		&models.SystemSetting{},
	)
}

// SeedSettings inserts the default settings rows if they don't exist yet.
func SeedSettings(db *gorm.DB, wallet *config.WalletConfig) error {
	settings := repository.NewSettingRepository(db)
	return settings.SeedDefaults(map[string]string{
		domain.SettingPlatformFeePercent: strconv.FormatInt(wallet.PlatformFeePercent, 10),
		domain.SettingMinWithdrawalKobo:  strconv.FormatInt(wallet.MinWithdrawalKobo, 10),
	})
}
