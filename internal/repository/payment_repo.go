package repository

import (
	"wifipesa/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.PaymentSession) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByCheckoutID(checkoutID string) (*models.PaymentSession, error) {
	var p models.PaymentSession
	err := r.db.Where("checkout_id = ?", checkoutID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByReceipt(receipt string) (*models.PaymentSession, error) {
	var p models.PaymentSession
	err := r.db.Where("mpesa_receipt = ?", receipt).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(p *models.PaymentSession) error {
	return r.db.Save(p).Error
}

// List returns sessions newest-first for the admin surface.
func (r *PaymentRepository) List(offset, limit int) ([]models.PaymentSession, int64, error) {
	var total int64
	if err := r.db.Model(&models.PaymentSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sessions []models.PaymentSession
	err := r.db.Order("id DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}
