package models

import (
	"time"
)

// Message is one turn in a conversation. Immutable once created; only
// whole-conversation delete/reset removes rows. CreatedAt (id as tiebreak)
// is the ordering key.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_msg_conversation" json:"conversation_id"`
	Sender         string    `gorm:"size:16;not null" json:"sender"` // user | character
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreditsUsed    int64     `gorm:"not null;default:0" json:"credits_used"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
