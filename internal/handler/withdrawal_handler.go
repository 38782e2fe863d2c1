package handler

import (
	"errors"
	"net/http"

	"rentora/internal/middleware"
	"rentora/internal/repository"
	"rentora/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	security    *service.SecurityService
	withdrawals *service.WithdrawalService
}

func NewWithdrawalHandler(security *service.SecurityService, withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{security: security, withdrawals: withdrawals}
}

// RequestOtp emails a one-time withdrawal code to the agent.
func (h *WithdrawalHandler) RequestOtp(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Pin string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.security.VerifyPin(userID, req.Pin); err != nil {
		c.JSON(pinErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := h.security.GenerateWithdrawOtp(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send withdrawal code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal code sent to your email"})
}

func (h *WithdrawalHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		AmountKobo int64  `json:"amount_kobo" binding:"required,gt=0"`
		Pin        string `json:"pin" binding:"required"`
		Otp        string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wd, msg, err := h.withdrawals.Request(c.Request.Context(), userID, req.AmountKobo, req.Pin, req.Otp)
	if err != nil {
		c.JSON(withdrawalErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "withdrawal": wd})
}

func withdrawalErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPinLocked):
		return http.StatusLocked
	case errors.Is(err, service.ErrPinInvalid),
		errors.Is(err, service.ErrPinNotSet),
		errors.Is(err, service.ErrOtpInvalid),
		errors.Is(err, service.ErrOtpExpired),
		errors.Is(err, service.ErrOtpNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrNoBankOnFile),
		errors.Is(err, repository.ErrInsufficientBalance):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
