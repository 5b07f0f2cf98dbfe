package handler

import (
	"net/http"
	"time"

	"amoria/config"
	"amoria/internal/domain"
	"amoria/internal/models"
	"amoria/internal/repository"
	"amoria/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentWebhookHandler is the single entry point through which the payment
// collaborator increases a balance. The pipeline itself never credits.
type PaymentWebhookHandler struct {
	cfg        *config.Config
	db         *gorm.DB
	payments   *repository.PaymentRepository
	ledger     *repository.LedgerRepository
	creditsHub *ws.Hub
}

func NewPaymentWebhookHandler(cfg *config.Config, db *gorm.DB, payments *repository.PaymentRepository, ledger *repository.LedgerRepository, creditsHub *ws.Hub) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{cfg: cfg, db: db, payments: payments, ledger: ledger, creditsHub: creditsHub}
}

type paymentWebhookPayload struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Credits     int64  `json:"credits" binding:"required,min=1"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Provider    string `json:"provider" binding:"required"`
	ProviderRef string `json:"provider_ref" binding:"required"`
}

// Handle records the payment and credits the wallet in one transaction: a
// failed grant rolls the payment record back, so the provider's retry is not
// swallowed by the unique provider_ref index. A genuine duplicate retry is
// acknowledged without granting credits twice.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	if h.cfg.Payment.WebhookSecret != "" && c.GetHeader("X-Webhook-Secret") != h.cfg.Payment.WebhookSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}
	var payload paymentWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := time.Now()
	p := &models.Payment{
		UserID:      payload.UserID,
		Credits:     payload.Credits,
		AmountCents: payload.AmountCents,
		Currency:    payload.Currency,
		Provider:    payload.Provider,
		ProviderRef: payload.ProviderRef,
		Status:      domain.PaymentStatusCompleted,
		CompletedAt: &now,
	}
	var balance int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.payments.CreatePaymentTx(tx, p); err != nil {
			return err
		}
		b, err := h.ledger.CreditTx(tx, payload.UserID, payload.Credits, domain.TxTypePurchase, payload.ProviderRef)
		balance = b
		return err
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			c.JSON(http.StatusOK, gin.H{"status": "already processed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment processing failed"})
		return
	}
	if h.creditsHub != nil {
		h.creditsHub.PublishBalance(payload.UserID, balance)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "balance": balance})
}
