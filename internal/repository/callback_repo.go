package repository

import (
	"wifipesa/internal/models"

	"gorm.io/gorm"
)

type CallbackRepository struct {
	db *gorm.DB
}

func NewCallbackRepository(db *gorm.DB) *CallbackRepository {
	return &CallbackRepository{db: db}
}

func (r *CallbackRepository) Create(e *models.CallbackEvent) error {
	return r.db.Create(e).Error
}
