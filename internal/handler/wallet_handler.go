package handler

import (
	"log"
	"net/http"
	"regexp"

	"rentora/internal/middleware"
	"rentora/internal/repository"
	"rentora/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	gw          service.Gateway
	userRepo    *repository.UserRepository
	walletRepo  *repository.WalletRepository
	earningRepo *repository.EarningRepository
	wdRepo      *repository.WithdrawalRepository
	provisioner *service.Provisioner
}

func NewWalletHandler(
	gw service.Gateway,
	userRepo *repository.UserRepository,
	walletRepo *repository.WalletRepository,
	earningRepo *repository.EarningRepository,
	wdRepo *repository.WithdrawalRepository,
	provisioner *service.Provisioner,
) *WalletHandler {
	return &WalletHandler{
		gw:          gw,
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		earningRepo: earningRepo,
		wdRepo:      wdRepo,
		provisioner: provisioner,
	}
}

var accountNumberPattern = regexp.MustCompile(`^\d{10}$`)

// UpdateBankAccount saves the payout destination and provisions the gateway
// identities. Provisioning failures never fail the request; they only delay
// the automated payout path.
func (h *WalletHandler) UpdateBankAccount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		BankCode      string `json:"bank_code" binding:"required"`
		BankName      string `json:"bank_name" binding:"required"`
		AccountNumber string `json:"account_number" binding:"required"`
		AccountName   string `json:"account_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !accountNumberPattern.MatchString(req.AccountNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account number must be 10 digits"})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	u.BankCode = req.BankCode
	u.BankName = req.BankName
	u.AccountNumber = req.AccountNumber
	u.AccountName = req.AccountName
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save bank account"})
		return
	}
	if _, err := h.provisioner.EnsureVirtualAccount(c.Request.Context(), u); err != nil {
		log.Printf("[Wallet] virtual account provisioning for user %d: %v", userID, err)
	}
	if err := h.provisioner.EnsureSubAccount(c.Request.Context(), u); err != nil {
		log.Printf("[Wallet] subaccount provisioning for user %d: %v", userID, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "bank account saved"})
}

// Get returns bank details plus the cached and live balances.
func (h *WalletHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	w, err := h.walletRepo.GetOrCreate(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	resp := gin.H{
		"balance_kobo": w.BalanceKobo,
		"currency":     w.Currency,
		"bank_account": gin.H{
			"bank_code":      u.BankCode,
			"bank_name":      u.BankName,
			"account_number": u.AccountNumber,
			"account_name":   u.AccountName,
		},
		"virtual_account": gin.H{
			"account_number": w.VirtualAccountNumber,
			"bank_name":      w.VirtualBankName,
		},
	}
	if w.HasVirtualAccount() {
		if bal, err := h.gw.GetBalance(c.Request.Context(), w.AccountReference); err == nil {
			resp["live_balance_kobo"] = bal.AvailableKobo
			if serr := h.walletRepo.SyncBalance(userID, bal.AvailableKobo); serr == nil {
				resp["balance_kobo"] = bal.AvailableKobo
			}
		} else {
			log.Printf("[Wallet] live balance for user %d: %v", userID, err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Earnings returns the agent's earnings history.
func (h *WalletHandler) Earnings(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := parsePagination(c)
	list, err := h.earningRepo.ListByUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load earnings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": list})
}

// EarningStats returns aggregate earnings figures.
func (h *WalletHandler) EarningStats(c *gin.Context) {
	userID := middleware.GetUserID(c)
	stats, err := h.earningRepo.StatsByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Withdrawals returns the agent's withdrawal history.
func (h *WalletHandler) Withdrawals(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := parsePagination(c)
	list, err := h.wdRepo.ListByUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}
