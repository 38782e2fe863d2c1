package router

import (
	"time"

	"rentora/config"
	"rentora/internal/domain"
	"rentora/internal/handler"
	"rentora/internal/middleware"
	"rentora/internal/repository"
	"rentora/internal/service"
	"rentora/pkg/cloudinary"
	"rentora/pkg/flutterwave"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))
	sensitive := middleware.SensitiveRateLimit(middleware.NewRateLimiter(10, 60*time.Second))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	earningRepo := repository.NewEarningRepository(db)
	wdRepo := repository.NewWithdrawalRepository(db)
	promoRepo := repository.NewPromotionRepository(db)
	houseRepo := repository.NewHouseRepository(db)
	viewingRepo := repository.NewViewingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	gw := flutterwave.NewClient(cfg.Flutterwave.BaseURL, cfg.Flutterwave.SecretKey)
	mailer := service.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.Sender)
	notifier := service.NewNotifier(notificationRepo, userRepo, mailer)
	securitySvc := service.NewSecurityService(userRepo, notifier)
	provisioner := service.NewProvisioner(gw, walletRepo, int(100-cfg.Wallet.PlatformFeePercent))
	promoSvc := service.NewPromotionService(promoRepo, houseRepo)
	paymentSvc := service.NewPaymentService(
		gw, paymentRepo, earningRepo, walletRepo, settingRepo, viewingRepo,
		promoSvc, notifier, cfg.Wallet.PlatformFeePercent, cfg.Flutterwave.RedirectURL,
	)
	wdSvc := service.NewWithdrawalService(
		gw, walletRepo, wdRepo, userRepo, securitySvc, settingRepo, notifier,
		cfg.Wallet.MinWithdrawalKobo, cfg.Wallet.TransferTimeout,
	)
	authSvc := service.NewAuthService(cfg, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	walletHandler := handler.NewWalletHandler(gw, userRepo, walletRepo, earningRepo, wdRepo, provisioner)
	pinHandler := handler.NewPinHandler(securitySvc)
	wdHandler := handler.NewWithdrawalHandler(securitySvc, wdSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, viewingRepo, houseRepo, userRepo)
	promoHandler := handler.NewPromotionHandler(promoSvc, paymentSvc, promoRepo, houseRepo, userRepo, cloud)
	houseHandler := handler.NewHouseHandler(houseRepo, viewingRepo, userRepo)
	webhookHandler := handler.NewWebhookHandler(paymentSvc, wdSvc, cfg.Flutterwave.WebhookSecret)
	adminHandler := handler.NewAdminHandler(wdSvc, walletRepo, wdRepo, settingRepo, houseRepo)

	api := r.Group("/api/v1")

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Webhooks are authenticated by signature, not JWT.
	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/flutterwave", webhookHandler.Charge)
		webhooks.POST("/transfer", webhookHandler.Transfer)
	}

	// Redirect callback from the gateway checkout page.
	api.GET("/payments/verify", paymentHandler.Verify)
	api.POST("/promotions/:id/click", promoHandler.Click)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(&cfg.JWT))
	{
		authed.POST("/houses/:id/viewings", houseHandler.RequestViewing)
		authed.POST("/viewings/:id/pay", paymentHandler.PayViewing)
	}

	// Agent wallet surface
	agent := api.Group("/me")
	agent.Use(middleware.AuthRequired(&cfg.JWT), middleware.RequireRole(domain.RoleAgent, domain.RoleLandlord))
	{
		agent.PUT("/bank-account", walletHandler.UpdateBankAccount)
		agent.GET("/wallet", walletHandler.Get)
		agent.GET("/earnings", walletHandler.Earnings)
		agent.GET("/earnings/stats", walletHandler.EarningStats)
		agent.GET("/withdrawals", walletHandler.Withdrawals)

		agent.POST("/pin", sensitive, pinHandler.Set)
		agent.POST("/pin/verify", sensitive, pinHandler.Verify)
		agent.POST("/pin/reset-request", sensitive, pinHandler.RequestReset)
		agent.POST("/pin/reset", sensitive, pinHandler.Reset)

		agent.POST("/withdraw/otp", sensitive, wdHandler.RequestOtp)
		agent.POST("/withdraw", sensitive, wdHandler.Create)
	}

	listings := api.Group("")
	listings.Use(middleware.AuthRequired(&cfg.JWT), middleware.RequireRole(domain.RoleAgent, domain.RoleLandlord))
	{
		listings.POST("/houses", houseHandler.Create)
		listings.GET("/houses/mine", houseHandler.ListMine)

		listings.POST("/promotions", promoHandler.Create)
		listings.GET("/promotions", promoHandler.ListMine)
		listings.POST("/promotions/:id/pay", promoHandler.Pay)
		listings.DELETE("/promotions/:id", promoHandler.Cancel)
	}

	// Admin surface
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(&cfg.JWT), middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/disbursements/pending", adminHandler.PendingDisbursements)
		admin.POST("/disbursements", adminHandler.ManualDisburse)
		admin.GET("/withdrawals", adminHandler.ListWithdrawals)
		admin.POST("/withdrawals/:reference/disburse", adminHandler.MarkDisbursed)
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSettings)
		admin.POST("/houses/:id/flag", adminHandler.FlagHouse)
	}

	return r
}
