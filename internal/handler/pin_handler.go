package handler

import (
	"errors"
	"net/http"

	"rentora/internal/middleware"
	"rentora/internal/service"

	"github.com/gin-gonic/gin"
)

type PinHandler struct {
	security *service.SecurityService
}

func NewPinHandler(security *service.SecurityService) *PinHandler {
	return &PinHandler{security: security}
}

func (h *PinHandler) Set(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Pin string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.security.SetPin(userID, req.Pin); err != nil {
		if errors.Is(err, service.ErrPinFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set pin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction pin set"})
}

func (h *PinHandler) Verify(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (h *PinHandler) RequestReset(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.security.RequestPinReset(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reset code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset code sent to your email"})
}

func (h *PinHandler) Reset(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Code string `json:"code" binding:"required"`
		Pin  string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.security.ResetPin(userID, req.Code, req.Pin); err != nil {
		if errors.Is(err, service.ErrResetCode) || errors.Is(err, service.ErrPinFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset pin"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction pin updated"})
}

func pinErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrPinLocked):
		return http.StatusLocked
	case errors.Is(err, service.ErrPinInvalid), errors.Is(err, service.ErrPinNotSet):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
