package handler

import (
	"net/http"
	"strconv"
	"time"

	"rentora/internal/domain"
	"rentora/internal/middleware"
	"rentora/internal/models"
	"rentora/internal/repository"

	"github.com/gin-gonic/gin"
)

type HouseHandler struct {
	houses   *repository.HouseRepository
	viewings *repository.ViewingRepository
	users    *repository.UserRepository
}

func NewHouseHandler(houses *repository.HouseRepository, viewings *repository.ViewingRepository, users *repository.UserRepository) *HouseHandler {
	return &HouseHandler{houses: houses, viewings: viewings, users: users}
}

// Create publishes a listing. Suspended agents cannot list: suspension cuts
// off new earnings while leaving already-earned funds withdrawable.
func (h *HouseHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if u.Suspended {
		c.JSON(http.StatusForbidden, gin.H{"error": "account suspended, new listings are disabled"})
		return
	}
	var req struct {
		Title          string `json:"title" binding:"required"`
		Address        string `json:"address"`
		PriceKobo      int64  `json:"price_kobo" binding:"required,gt=0"`
		ViewingFeeKobo int64  `json:"viewing_fee_kobo" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	house := &models.House{
		UserID:         userID,
		Title:          req.Title,
		Address:        req.Address,
		PriceKobo:      req.PriceKobo,
		ViewingFeeKobo: req.ViewingFeeKobo,
	}
	if err := h.houses.Create(house); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create listing"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"house": house})
}

func (h *HouseHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.houses.ListByOwner(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load listings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"houses": list})
}

// RequestViewing books a viewing slot for a house. The fee is snapshotted
// from the listing so a later price change cannot alter an open request.
func (h *HouseHandler) RequestViewing(c *gin.Context) {
	userID := middleware.GetUserID(c)
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid house id"})
		return
	}
	var req struct {
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	house, err := h.houses.GetByID(uint(houseID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "house not found"})
		return
	}
	if house.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot book a viewing on your own listing"})
		return
	}

	viewing := &models.Viewing{
		HouseID:     house.ID,
		UserID:      userID,
		ScheduledAt: req.ScheduledAt,
		FeeKobo:     house.ViewingFeeKobo,
		Status:      domain.ViewingStatusRequested,
	}
	if err := h.viewings.Create(viewing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request viewing"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"viewing": viewing})
}
