package repository

import (
	"wifipesa/internal/models"

	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetByEmail(email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AdminRepository) Create(u *models.AdminUser) error {
	return r.db.Create(u).Error
}
