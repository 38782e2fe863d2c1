package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"
	"rentora/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	withdrawals *service.WithdrawalService
	walletRepo  *repository.WalletRepository
	wdRepo      *repository.WithdrawalRepository
	settingRepo *repository.SettingRepository
	houseRepo   *repository.HouseRepository
}

func NewAdminHandler(
	withdrawals *service.WithdrawalService,
	walletRepo *repository.WalletRepository,
	wdRepo *repository.WithdrawalRepository,
	settingRepo *repository.SettingRepository,
	houseRepo *repository.HouseRepository,
) *AdminHandler {
	return &AdminHandler{
		withdrawals: withdrawals,
		walletRepo:  walletRepo,
		wdRepo:      wdRepo,
		settingRepo: settingRepo,
		houseRepo:   houseRepo,
	}
}

// PendingDisbursements lists agents holding funds with no automated payout
// path, i.e. the manual disbursement queue.
func (h *AdminHandler) PendingDisbursements(c *gin.Context) {
	wallets, err := h.walletRepo.ListFundedWithoutPayoutAccount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending disbursements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallets": wallets, "count": len(wallets)})
}

// ManualDisburse debits one or many agents and records pending withdrawals
// for out-of-band payout. amount_kobo 0 or absent means the full balance.
func (h *AdminHandler) ManualDisburse(c *gin.Context) {
	var req struct {
		UserIDs    []uint `json:"user_ids" binding:"required,min=1"`
		AmountKobo int64  `json:"amount_kobo"`
		Note       string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(req.UserIDs))
	for _, userID := range req.UserIDs {
		wd, err := h.withdrawals.ManualDisburse(c.Request.Context(), userID, req.AmountKobo, req.Note)
		if err != nil {
			log.Printf("[Admin] manual disbursement for user %d failed: %v", userID, err)
			results = append(results, gin.H{"user_id": userID, "error": err.Error()})
			continue
		}
		results = append(results, gin.H{"user_id": userID, "withdrawal": wd})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListWithdrawals lists withdrawals, optionally filtered by status.
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	limit, offset := parsePagination(c)
	status := c.Query("status")

	var (
		list []models.Withdrawal
		err  error
	)
	if status != "" {
		list, err = h.wdRepo.ListByStatus(status, limit, offset)
	} else {
		list, err = h.wdRepo.List(limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

// MarkDisbursed closes out a manually queued withdrawal after the operator
// has moved the funds out of band.
func (h *AdminHandler) MarkDisbursed(c *gin.Context) {
	ref := c.Param("reference")
	var req struct {
		Success bool   `json:"success"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.withdrawals.MarkDisbursed(ref, req.Success, req.Note); err != nil {
		if errors.Is(err, service.ErrWithdrawalDone) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal updated"})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings upserts override keys. Only known keys are accepted so a
// typo cannot silently create a dead setting.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	known := map[string]bool{
		domain.SettingPlatformFeePercent: true,
		domain.SettingMinWithdrawalKobo:  true,
	}
	for key, value := range req {
		if !known[key] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting: " + key})
			return
		}
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "setting " + key + " must be numeric"})
			return
		}
	}
	for key, value := range req {
		if err := h.settingRepo.Set(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings updated"})
}

// FlagHouse marks a listing for review.
func (h *AdminHandler) FlagHouse(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid house id"})
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.houseRepo.Flag(uint(houseID), req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to flag house"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "house flagged"})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}
