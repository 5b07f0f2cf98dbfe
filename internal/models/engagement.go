package models

import (
	"time"
)

// CharacterLike and CharacterFavorite back the optimistic like/favorite
// toggles. Hard rows with a unique pair index; the cached counters on
// Character move in the same transaction as row creation/removal so the
// count can never drift from the rows.

type CharacterLike struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_like_user_character,unique" json:"user_id"`
	CharacterID uint      `gorm:"not null;index:idx_like_user_character,unique" json:"character_id"`
	CreatedAt   time.Time `json:"created_at"`

	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Character Character `gorm:"foreignKey:CharacterID" json:"-"`
}

func (CharacterLike) TableName() string {
	return "character_likes"
}

type CharacterFavorite struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_fav_user_character,unique" json:"user_id"`
	CharacterID uint      `gorm:"not null;index:idx_fav_user_character,unique" json:"character_id"`
	CreatedAt   time.Time `json:"created_at"`

	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Character Character `gorm:"foreignKey:CharacterID" json:"-"`
}

func (CharacterFavorite) TableName() string {
	return "character_favorites"
}
