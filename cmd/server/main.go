package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentora/config"
	"rentora/internal/database"
	"rentora/internal/repository"
	"rentora/internal/router"
	"rentora/internal/service"
	"rentora/pkg/cloudinary"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedSettings(db, &cfg.Wallet); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	sched := startScheduler(db)
	defer sched.Stop()

	engine := router.Setup(cfg, db, cloud)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}

// startScheduler runs the promotion expiry sweep every hour so lapsed
// promotions stop featuring their houses even if no request touches them.
func startScheduler(db *gorm.DB) *cron.Cron {
	promoSvc := service.NewPromotionService(
		repository.NewPromotionRepository(db),
		repository.NewHouseRepository(db),
	)
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		n, err := promoSvc.ExpireDue()
		if err != nil {
			log.Printf("[Cron] promotion expiry sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[Cron] expired %d promotions", n)
		}
	}); err != nil {
		log.Fatalf("cron: %v", err)
	}
	c.Start()
	return c
}
