package models

import (
	"time"

	"amoria/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Username              string         `gorm:"uniqueIndex;size:64;not null;default:''" json:"username"`
	Email                 string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash          string         `gorm:"size:255" json:"-"`
	GoogleID              *string        `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups (avoids duplicate '' on unique index)
	AvatarURL             string         `gorm:"size:512" json:"avatar_url"`
	SubscriptionTier      string         `gorm:"size:20;not null;default:'FREE'" json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time     `json:"subscription_expires_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *CreditWallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

func (u *User) IsSubscribed(t time.Time) bool {
	if u.SubscriptionTier == domain.TierFree {
		return false
	}
	return u.SubscriptionExpiresAt == nil || u.SubscriptionExpiresAt.After(t)
}
