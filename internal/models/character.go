package models

import (
	"time"

	"gorm.io/gorm"
)

// Character is a catalog entry. The chat pipeline reads it for pricing,
// the greeting, and the profile fields that seed generation prompts; it
// never writes anything except the cached engagement counters.
type Character struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"size:100;not null" json:"name"`
	Tagline           string         `gorm:"size:255" json:"tagline"`
	Greeting          string         `gorm:"type:text;not null" json:"greeting"`
	Personality       string         `gorm:"type:text" json:"personality"`
	Description       string         `gorm:"type:text" json:"description"`
	Scenario          string         `gorm:"type:text" json:"scenario"`
	CreditsPerMessage int64          `gorm:"not null;default:0" json:"credits_per_message"`
	AvatarURL         string         `gorm:"size:512" json:"avatar_url"`
	LikeCount         int64          `gorm:"not null;default:0" json:"like_count"`
	FavoriteCount     int64          `gorm:"not null;default:0" json:"favorite_count"`
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Character) TableName() string {
	return "characters"
}
