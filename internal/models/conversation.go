package models

import (
	"time"
)

// Conversation is a persistent thread between one user and one character.
// The composite unique index guarantees at most one row per pair; concurrent
// creates converge via duplicate-key refetch. Epoch is bumped on reset so an
// in-flight generation worker cannot append into a reset or deleted thread.
// Hard-deleted (no gorm.DeletedAt): a soft-deleted row would keep occupying
// the unique pair index.
type Conversation struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index:idx_conv_user_character,unique" json:"user_id"`
	CharacterID      uint      `gorm:"not null;index:idx_conv_user_character,unique" json:"character_id"`
	MessageCount     int64     `gorm:"not null;default:0" json:"message_count"`
	TotalCreditsUsed int64     `gorm:"not null;default:0" json:"total_credits_used"`
	LastMessageAt    time.Time `gorm:"index" json:"last_message_at"`
	IsArchived       bool      `gorm:"default:false" json:"is_archived"`
	Epoch            int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Character Character `gorm:"foreignKey:CharacterID" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}
