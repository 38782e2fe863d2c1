package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Flutterwave FlutterwaveConfig
	SMTP        SMTPConfig
	Cloudinary  CloudinaryConfig
	Wallet      WalletConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type FlutterwaveConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string // verif-hash header expected on webhooks
	RedirectURL   string // where the gateway sends the payer after checkout
}

type SMTPConfig struct {
	Host   string
	Port   int
	User   string
	Pass   string
	Sender string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// WalletConfig holds the static defaults the settings table can override.
type WalletConfig struct {
	PlatformFeePercent int64
	MinWithdrawalKobo  int64
	TransferTimeout    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Config] no .env file loaded: %v", err)
	}
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "rentora:rentora@tcp(localhost:3306)/rentora?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "rentora",
		},
		Flutterwave: FlutterwaveConfig{
			BaseURL:       getenv("FLW_BASE_URL", "https://api.flutterwave.com"),
			SecretKey:     getenv("FLW_SECRET_KEY", ""),
			WebhookSecret: getenv("FLW_WEBHOOK_SECRET", ""),
			RedirectURL:   getenv("FLW_REDIRECT_URL", "https://rentora.ng/payments/callback"),
		},
		SMTP: SMTPConfig{
			Host:   getenv("SMTP_HOST", ""),
			Port:   getenvInt("SMTP_PORT", 465),
			User:   getenv("SMTP_USER", ""),
			Pass:   getenv("SMTP_PASS", ""),
			Sender: getenv("SMTP_SENDER", "no-reply@rentora.ng"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getenv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getenv("CLOUDINARY_API_KEY", ""),
			APISecret: getenv("CLOUDINARY_API_SECRET", ""),
		},
		Wallet: WalletConfig{
			PlatformFeePercent: int64(getenvInt("PLATFORM_FEE_PERCENT", 10)),
			MinWithdrawalKobo:  int64(getenvInt("MIN_WITHDRAWAL_KOBO", 100000)), // ₦1,000
			TransferTimeout:    15 * time.Second,
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
