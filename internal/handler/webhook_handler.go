package handler

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"rentora/internal/domain"
	"rentora/internal/service"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	payments      *service.PaymentService
	withdrawals   *service.WithdrawalService
	webhookSecret string
}

func NewWebhookHandler(payments *service.PaymentService, withdrawals *service.WithdrawalService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{payments: payments, withdrawals: withdrawals, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) verifySignature(c *gin.Context) bool {
	sig := c.GetHeader("verif-hash")
	return sig != "" && subtle.ConstantTimeCompare([]byte(sig), []byte(h.webhookSecret)) == 1
}

// Charge receives gateway payment notifications. Always acks 200 once the
// signature checks out so the gateway stops retrying; settlement itself is
// idempotent per reference.
func (h *WebhookHandler) Charge(c *gin.Context) {
	if !h.verifySignature(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			TxRef  string `json:"tx_ref"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if event.Event != "charge.completed" || event.Data.TxRef == "" {
		c.JSON(http.StatusOK, gin.H{"message": "ignored"})
		return
	}

	if _, err := h.payments.VerifyAndCredit(c.Request.Context(), event.Data.TxRef); err != nil {
		log.Printf("[Webhook] charge %s not settled: %v", event.Data.TxRef, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "received"})
}

// Transfer receives payout finalization notices and moves the matching
// withdrawal to its terminal status.
func (h *WebhookHandler) Transfer(c *gin.Context) {
	if !h.verifySignature(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			Reference       string `json:"reference"`
			Status          string `json:"status"`
			CompleteMessage string `json:"complete_message"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if event.Event != "transfer.completed" || event.Data.Reference == "" {
		c.JSON(http.StatusOK, gin.H{"message": "ignored"})
		return
	}

	status := domain.WithdrawalStatusFailed
	if strings.EqualFold(event.Data.Status, "SUCCESSFUL") {
		status = domain.WithdrawalStatusSuccessful
	}
	if err := h.withdrawals.Finalize(event.Data.Reference, status, event.Data.CompleteMessage); err != nil {
		log.Printf("[Webhook] finalize transfer %s: %v", event.Data.Reference, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "received"})
}
