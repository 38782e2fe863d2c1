package handler

import (
	"errors"
	"net/http"
	"strconv"

	"rentora/internal/domain"
	"rentora/internal/middleware"
	"rentora/internal/repository"
	"rentora/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments *service.PaymentService
	viewings *repository.ViewingRepository
	houses   *repository.HouseRepository
	users    *repository.UserRepository
}

func NewPaymentHandler(
	payments *service.PaymentService,
	viewings *repository.ViewingRepository,
	houses *repository.HouseRepository,
	users *repository.UserRepository,
) *PaymentHandler {
	return &PaymentHandler{payments: payments, viewings: viewings, houses: houses, users: users}
}

// PayViewing initializes a split payment for a viewing fee. The checkout link
// is returned to the client; settlement happens on verify.
func (h *PaymentHandler) PayViewing(c *gin.Context) {
	userID := middleware.GetUserID(c)
	viewingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viewing id"})
		return
	}

	v, err := h.viewings.GetByID(uint(viewingID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "viewing not found"})
		return
	}
	if v.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your viewing"})
		return
	}
	if v.Status != domain.ViewingStatusRequested {
		c.JSON(http.StatusConflict, gin.H{"error": "viewing already paid"})
		return
	}

	house, err := h.houses.GetByID(v.HouseID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "house not found"})
		return
	}
	payer, err := h.users.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	link, ref, err := h.payments.InitializeViewingPayment(c.Request.Context(), v, payer, house.UserID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to initialize payment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_link": link, "reference": ref})
}

// Verify is the redirect callback from the gateway checkout page. It shares
// the idempotent verify-and-credit path with the webhook, so whichever lands
// first settles and the other becomes a no-op.
func (h *PaymentHandler) Verify(c *gin.Context) {
	ref := c.Query("reference")
	if ref == "" {
		ref = c.Query("tx_ref")
	}
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing reference"})
		return
	}

	p, err := h.payments.VerifyAndCredit(c.Request.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment reference"})
		case errors.Is(err, service.ErrPaymentNotSettled):
			c.JSON(http.StatusOK, gin.H{"status": "pending", "message": "payment not yet settled"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "verification failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": p.Status, "payment": p})
}
