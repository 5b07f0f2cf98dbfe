package models

import (
	"time"

	"gorm.io/gorm"
)

// CreditWallet holds a user's spendable credit balance. One row per user;
// all balance mutations go through conditional UPDATEs so the row itself is
// the serialization point for concurrent debits.
type CreditWallet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64          `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CreditWallet) TableName() string {
	return "credit_wallets"
}
