package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"settlement-service/internal/domain"
)

type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Environment  string // "sandbox" or "production"
}

type AppConfig struct {
	HTTPAddr  string
	Env       string
	RedisAddr string
	RedisPass string
	PayPal    PayPalConfig
	Fee       domain.FeeSchedule
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8031"),
		Env:       getEnv("APP_ENV", "development"),
		RedisAddr: getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),
		PayPal: PayPalConfig{
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
			Environment:  getEnv("PAYPAL_ENV", "sandbox"),
		},
		Fee: domain.FeeSchedule{
			FixedFee:   getEnvDecimal("FEE_FIXED_USD", domain.DefaultFeeSchedule().FixedFee),
			PercentBps: getEnvInt64("FEE_PERCENT_BPS", domain.DefaultFeeSchedule().PercentBps),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}
