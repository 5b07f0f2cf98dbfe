package repository

import (
	"amoria/internal/models"

	"gorm.io/gorm"
)

type CharacterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func (r *CharacterRepository) List(limit, offset int) ([]models.Character, error) {
	var list []models.Character
	err := r.db.Where("is_active = ?", true).
		Order("like_count DESC, id ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *CharacterRepository) GetByID(id uint) (*models.Character, error) {
	var ch models.Character
	err := r.db.First(&ch, id).Error
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Like records a like and bumps the cached counter in one transaction.
// Liking twice is a no-op so the counter cannot drift.
func (r *CharacterRepository) Like(userID, characterID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.CharacterLike{UserID: userID, CharacterID: characterID}).Error; err != nil {
			if IsDuplicateKey(err) {
				return nil
			}
			return err
		}
		return tx.Model(&models.Character{}).Where("id = ?", characterID).
			Update("like_count", gorm.Expr("like_count + 1")).Error
	})
}

func (r *CharacterRepository) Unlike(userID, characterID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND character_id = ?", userID, characterID).
			Delete(&models.CharacterLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Character{}).Where("id = ?", characterID).
			Update("like_count", gorm.Expr("like_count - 1")).Error
	})
}

func (r *CharacterRepository) IsLiked(userID, characterID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.CharacterLike{}).
		Where("user_id = ? AND character_id = ?", userID, characterID).Count(&c).Error
	return c > 0, err
}

func (r *CharacterRepository) Favorite(userID, characterID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.CharacterFavorite{UserID: userID, CharacterID: characterID}).Error; err != nil {
			if IsDuplicateKey(err) {
				return nil
			}
			return err
		}
		return tx.Model(&models.Character{}).Where("id = ?", characterID).
			Update("favorite_count", gorm.Expr("favorite_count + 1")).Error
	})
}

func (r *CharacterRepository) Unfavorite(userID, characterID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND character_id = ?", userID, characterID).
			Delete(&models.CharacterFavorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Character{}).Where("id = ?", characterID).
			Update("favorite_count", gorm.Expr("favorite_count - 1")).Error
	})
}

func (r *CharacterRepository) IsFavorite(userID, characterID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.CharacterFavorite{}).
		Where("user_id = ? AND character_id = ?", userID, characterID).Count(&c).Error
	return c > 0, err
}

// FavoriteEntry is a favorited character with display fields.
type FavoriteEntry struct {
	CharacterID uint   `json:"character_id"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	AvatarURL   string `json:"avatar_url"`
}

func (r *CharacterRepository) ListFavorites(userID uint, limit, offset int) ([]FavoriteEntry, error) {
	var favs []models.CharacterFavorite
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Preload("Character").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	out := make([]FavoriteEntry, 0, len(favs))
	for _, f := range favs {
		out = append(out, FavoriteEntry{
			CharacterID: f.CharacterID,
			Name:        f.Character.Name,
			Tagline:     f.Character.Tagline,
			AvatarURL:   f.Character.AvatarURL,
		})
	}
	return out, nil
}
