package repository

import (
	"amoria/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreatePaymentTx inserts the payment record in the caller's transaction; a
// duplicate provider_ref fails with a unique-constraint error the caller
// treats as "already processed".
func (r *PaymentRepository) CreatePaymentTx(tx *gorm.DB, p *models.Payment) error {
	return tx.Create(p).Error
}

func (r *PaymentRepository) GetByProviderRef(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("provider_ref = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
