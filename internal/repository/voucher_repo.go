package repository

import (
	"wifipesa/internal/models"

	"gorm.io/gorm"
)

type VoucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// ListUsernames returns distinct voucher identities, newest-first.
func (r *VoucherRepository) ListUsernames(offset, limit int) ([]string, error) {
	var names []string
	err := r.db.Model(&models.RadCheck{}).
		Where("attribute = ?", "Cleartext-Password").
		Order("id DESC").Offset(offset).Limit(limit).
		Pluck("username", &names).Error
	return names, err
}
