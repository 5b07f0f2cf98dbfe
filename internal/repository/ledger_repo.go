package repository

import (
	"errors"
	"fmt"

	"amoria/internal/domain"
	"amoria/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository owns all credit balance mutations. Debits are conditional
// UPDATEs (balance >= amount) so two concurrent debits can never jointly
// overdraw a wallet, and every mutation writes an audit row in the same
// transaction.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetOrCreateWallet(userID uint) (*models.CreditWallet, error) {
	var w models.CreditWallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.CreditWallet{UserID: userID, Balance: 0}
	if err := r.db.Create(&w).Error; err != nil {
		if IsDuplicateKey(err) {
			// lost a create race, the winner's row is authoritative
			err = r.db.Where("user_id = ?", userID).First(&w).Error
			if err == nil {
				return &w, nil
			}
		}
		return nil, err
	}
	return &w, nil
}

func (r *LedgerRepository) Balance(userID uint) (int64, error) {
	w, err := r.GetOrCreateWallet(userID)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// TryDebit atomically deducts amount from the user's wallet. Returns the new
// balance, or ErrInsufficientCredits when the wallet cannot cover the amount.
// A zero amount succeeds without touching the wallet row.
func (r *LedgerRepository) TryDebit(userID uint, amount int64, reference string) (int64, error) {
	var balance int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		b, err := r.DebitTx(tx, userID, amount, reference)
		balance = b
		return err
	})
	return balance, err
}

// DebitTx is TryDebit composed into a caller-owned transaction; the message
// pipeline uses it so debit and append commit or roll back together.
func (r *LedgerRepository) DebitTx(tx *gorm.DB, userID uint, amount int64, reference string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must be >= 0, got %d", amount)
	}
	if amount > 0 {
		res := tx.Model(&models.CreditWallet{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			// no wallet row or not enough credits; same outcome either way
			return 0, ErrInsufficientCredits
		}
		audit := models.CreditTransaction{
			UserID:    userID,
			Amount:    -amount,
			Type:      domain.TxTypeUsage,
			Reference: reference,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return 0, err
		}
	}
	var w models.CreditWallet
	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if amount == 0 && errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // free message, no wallet yet
		}
		return 0, err
	}
	return w.Balance, nil
}

// Credit adds credits to the user's wallet. Only the payment/subscription
// collaborator calls this; the pipeline never increases a balance.
func (r *LedgerRepository) Credit(userID uint, amount int64, txType, reference string) (int64, error) {
	var balance int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		b, err := r.CreditTx(tx, userID, amount, txType, reference)
		balance = b
		return err
	})
	return balance, err
}

// CreditTx is Credit composed into a caller-owned transaction; the payment
// webhook uses it so the payment record and the grant commit or roll back
// together. Creates the wallet row when absent.
func (r *LedgerRepository) CreditTx(tx *gorm.DB, userID uint, amount int64, txType, reference string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must be >= 0, got %d", amount)
	}
	res := tx.Model(&models.CreditWallet{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if err := tx.Create(&models.CreditWallet{UserID: userID, Balance: amount}).Error; err != nil {
			return 0, err
		}
	}
	audit := models.CreditTransaction{
		UserID:    userID,
		Amount:    amount,
		Type:      txType,
		Reference: reference,
	}
	if err := tx.Create(&audit).Error; err != nil {
		return 0, err
	}
	var w models.CreditWallet
	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		return 0, err
	}
	return w.Balance, nil
}

func (r *LedgerRepository) Transactions(userID uint, limit, offset int) ([]models.CreditTransaction, error) {
	var list []models.CreditTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
