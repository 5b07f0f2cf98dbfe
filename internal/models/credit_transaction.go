package models

import (
	"time"
)

// CreditTransaction is the append-only audit trail for the credit ledger.
// Rows are written in the same DB transaction as the wallet mutation, so the
// sum of a user's rows always matches the balance delta since signup.
type CreditTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`             // positive = credit, negative = debit
	Type      string    `gorm:"size:30;not null;index" json:"type"` // PURCHASE, SUBSCRIPTION, MONTHLY_GRANT, USAGE
	Reference string    `gorm:"size:128" json:"reference"`          // e.g. order no or conversation id
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
