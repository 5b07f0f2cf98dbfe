package handler

import (
	"net/http"
	"strconv"

	"amoria/internal/middleware"
	"amoria/internal/repository"

	"github.com/gin-gonic/gin"
)

type CharacterHandler struct {
	repo *repository.CharacterRepository
}

func NewCharacterHandler(repo *repository.CharacterRepository) *CharacterHandler {
	return &CharacterHandler{repo: repo}
}

func (h *CharacterHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": list})
}

func (h *CharacterHandler) Get(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	ch, err := h.repo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return
	}
	userID := middleware.GetUserID(c)
	liked, _ := h.repo.IsLiked(userID, ch.ID)
	favorited, _ := h.repo.IsFavorite(userID, ch.ID)
	c.JSON(http.StatusOK, gin.H{"character": ch, "liked": liked, "favorited": favorited})
}

func (h *CharacterHandler) Like(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.Like(userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "like failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CharacterHandler) Unlike(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.Unlike(userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlike failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CharacterHandler) Favorite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.Favorite(userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "favorite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CharacterHandler) Unfavorite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.repo.Unfavorite(userID, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unfavorite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CharacterHandler) ListFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.ListFavorites(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": list})
}
