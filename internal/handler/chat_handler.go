package handler

import (
	"errors"
	"net/http"
	"strconv"

	"amoria/internal/middleware"
	"amoria/internal/repository"
	"amoria/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChatHandler struct {
	chatSvc *service.ChatService
}

func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// CreateConversation is idempotent get-or-create for a (user, character)
// pair. New conversations are already seeded with the character's greeting.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		CharacterID uint `json:"character_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conv, err := h.chatSvc.GetOrCreateConversation(userID, req.CharacterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	list, err := h.chatSvc.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.chatSvc.Messages(userID, uint(convID), limit, offset)
	if err != nil {
		h.renderConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// SendMessage runs the credit-gated pipeline. 402 with the current balance
// means insufficient credits; the client keeps the typed content so the user
// can retry after topping up.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.chatSvc.SendMessage(userID, uint(convID), req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
			return
		}
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
			return
		}
		h.renderConversationError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": result.Message, "balance": result.NewBalance})
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.chatSvc.DeleteConversation(userID, uint(convID)); err != nil {
		h.renderConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ChatHandler) ResetConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.chatSvc.ResetConversation(userID, uint(convID)); err != nil {
		h.renderConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// renderConversationError keeps the denial generic: non-owners get the same
// 403 whether or not the conversation exists behind it. A send racing a
// concurrent delete/reset is a conflict the client retries, not a fault.
func (h *ChatHandler) renderConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotConversationOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, repository.ErrConversationGone):
		c.JSON(http.StatusConflict, gin.H{"error": "conversation was deleted or reset, retry"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
