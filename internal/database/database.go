package database

import (
	"errors"
	"log"

	"wifipesa/config"
	"wifipesa/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models. The radcheck table
// usually already exists on a FreeRADIUS box; migration only adds what is
// missing.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.RadCheck{},
		&models.PaymentSession{},
		&models.DeviceMapping{},
		&models.CallbackEvent{},
		&models.AdminUser{},
	)
}

// SeedAdmin creates the operator account from config when it does not exist
// yet. An empty password skips seeding.
func SeedAdmin(db *gorm.DB, cfg *config.AdminConfig) {
	if cfg.Email == "" || cfg.Password == "" {
		return
	}
	var existing models.AdminUser
	err := db.Where("email = ?", cfg.Email).First(&existing).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[SEED] admin lookup: %v", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[SEED] bcrypt: %v", err)
		return
	}
	if err := db.Create(&models.AdminUser{Email: cfg.Email, PasswordHash: string(hash)}).Error; err != nil {
		log.Printf("[SEED] admin create: %v", err)
		return
	}
	log.Printf("[SEED] admin account created email=%s", cfg.Email)
}
