package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"rentora/internal/middleware"
	"rentora/internal/repository"
	"rentora/internal/service"
	"rentora/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

type PromotionHandler struct {
	promotions *service.PromotionService
	payments   *service.PaymentService
	promoRepo  *repository.PromotionRepository
	houses     *repository.HouseRepository
	users      *repository.UserRepository
	uploader   cloudinary.Client
}

func NewPromotionHandler(
	promotions *service.PromotionService,
	payments *service.PaymentService,
	promoRepo *repository.PromotionRepository,
	houses *repository.HouseRepository,
	users *repository.UserRepository,
	uploader cloudinary.Client,
) *PromotionHandler {
	return &PromotionHandler{
		promotions: promotions,
		payments:   payments,
		promoRepo:  promoRepo,
		houses:     houses,
		users:      users,
		uploader:   uploader,
	}
}

// Create records a pending promotion. Multipart form: house_id, days,
// amount_kobo and an optional banner image uploaded to Cloudinary.
func (h *PromotionHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	houseID, err := strconv.ParseUint(c.PostForm("house_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid house_id"})
		return
	}
	days, err := strconv.Atoi(c.PostForm("days"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive number"})
		return
	}
	amountKobo, err := strconv.ParseInt(c.PostForm("amount_kobo"), 10, 64)
	if err != nil || amountKobo <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_kobo must be a positive number"})
		return
	}

	u, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if u.Suspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "account suspended, new promotions are disabled"})
		return
	}

	house, err := h.houses.GetByID(uint(houseID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "house not found"})
		return
	}
	if house.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only promote your own listing"})
		return
	}

	bannerURL := ""
	if file, err := c.FormFile("banner"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read banner"})
			return
		}
		defer src.Close()
		publicID := fmt.Sprintf("promo_%d_%d", userID, houseID)
		bannerURL, err = h.uploader.UploadImage(c.Request.Context(), src, "promotions", publicID)
		if err != nil {
			log.Printf("[Promotion] banner upload failed for user %d: %v", userID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "banner upload failed"})
			return
		}
	}

	promo, err := h.promotions.Create(userID, uint(houseID), days, amountKobo, bannerURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create promotion"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"promotion": promo})
}

// Pay initializes the gateway payment for a pending promotion.
func (h *PromotionHandler) Pay(c *gin.Context) {
	userID := middleware.GetUserID(c)
	promoID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}

	promo, err := h.promoRepo.GetByID(uint(promoID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promotion not found"})
		return
	}
	if promo.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your promotion"})
		return
	}

	payer, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	link, ref, err := h.payments.InitializePromotionPayment(c.Request.Context(), promo, payer)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to initialize payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_link": link, "reference": ref})
}

// Click records a banner click. Unauthenticated; bad ids are a 404, nothing
// else can fail loudly here.
func (h *PromotionHandler) Click(c *gin.Context) {
	promoID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}
	if err := h.promotions.TrackClick(uint(promoID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promotion not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recorded"})
}

func (h *PromotionHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := parsePagination(c)
	list, err := h.promoRepo.ListByUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch promotions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotions": list})
}

func (h *PromotionHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)
	promoID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promotion id"})
		return
	}

	promo, err := h.promoRepo.GetByID(uint(promoID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promotion not found"})
		return
	}
	if promo.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your promotion"})
		return
	}

	if err := h.promotions.Cancel(uint(promoID), false); err != nil {
		if errors.Is(err, service.ErrPromotionActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel promotion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "promotion cancelled"})
}
