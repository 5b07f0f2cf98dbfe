package handler

import (
	"net/http"
	"strconv"

	"amoria/internal/middleware"
	"amoria/internal/repository"

	"github.com/gin-gonic/gin"
)

type CreditsHandler struct {
	ledger *repository.LedgerRepository
}

func NewCreditsHandler(ledger *repository.LedgerRepository) *CreditsHandler {
	return &CreditsHandler{ledger: ledger}
}

// GetBalance is the authoritative balance fetch that seeds the client's
// optimistic counter.
func (h *CreditsHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	balance, err := h.ledger.Balance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *CreditsHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.ledger.Transactions(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
