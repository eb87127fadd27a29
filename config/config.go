package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Daraja   DarajaConfig
	Voucher  VoucherConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// DarajaConfig holds Safaricom Daraja API credentials for STK push.
type DarajaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string // must be HTTPS and reachable from Safaricom
	Timeout        time.Duration
}

type VoucherConfig struct {
	DefaultSessionSecs int
	MinSessionSecs     int
	MaxSessionSecs     int
}

// AdminConfig seeds the operator account at startup.
type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8099"),
			Env:          env("ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DB_DSN", "radius:radiuspass@tcp(localhost:3306)/radius?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: env("JWT_SECRET", "change-me-in-production"),
			Expiry: 24 * time.Hour,
			Issuer: "wifipesa",
		},
		Daraja: DarajaConfig{
			BaseURL:        env("DARAJA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			ConsumerKey:    env("DARAJA_CONSUMER_KEY", ""),
			ConsumerSecret: env("DARAJA_CONSUMER_SECRET", ""),
			ShortCode:      env("DARAJA_SHORT_CODE", "174379"),
			Passkey:        env("DARAJA_PASSKEY", ""),
			CallbackURL:    env("DARAJA_CALLBACK_URL", ""),
			Timeout:        30 * time.Second,
		},
		Voucher: VoucherConfig{
			DefaultSessionSecs: envInt("VOUCHER_DEFAULT_SECONDS", 3600),
			MinSessionSecs:     60,
			MaxSessionSecs:     86400,
		},
		Admin: AdminConfig{
			Email:    env("ADMIN_EMAIL", "admin@wifipesa.local"),
			Password: env("ADMIN_PASSWORD", ""),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
