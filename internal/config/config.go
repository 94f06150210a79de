package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every runtime setting the application reads. It is loaded
// once in main and injected; business logic never touches the process
// environment directly.
type Config struct {
	Env  string
	Port string

	DBDSN string

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// PlatformChargeCurrency is what the gateway actually charges in.
	// The only supported ledger→charge conversion is JOD→USD (static rate).
	PlatformChargeCurrency string
	FxRateJodToUsd         float64
	FxRateSource           string

	HoldWindow         time.Duration
	EnforceUniquePhone bool

	AMQPURL   string
	RedisAddr string
	RedisPass string

	RateLimitCapacity       int
	RateLimitRefillTokens   int
	RateLimitRefillInterval time.Duration

	LogFile string
}

func Load() (Config, error) {
	cfg := Config{
		Env:                     envOr("APP_ENV", "dev"),
		Port:                    envOr("APP_PORT", "8080"),
		DBDSN:                   os.Getenv("DB_DSN"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:      os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:       os.Getenv("CHECKOUT_CANCEL_URL"),
		PlatformChargeCurrency:  envOr("PLATFORM_CHARGE_CURRENCY", "USD"),
		FxRateSource:            envOr("FX_RATE_SOURCE", "env:FX_RATE_JOD_TO_USD"),
		HoldWindow:              time.Duration(envInt("HOLD_WINDOW_MINUTES", 60)) * time.Minute,
		EnforceUniquePhone:      envBool("ENFORCE_UNIQUE_PHONE", false),
		AMQPURL:                 os.Getenv("AMQP_URL"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPass:               os.Getenv("REDIS_PASSWORD"),
		RateLimitCapacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RateLimitRefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RateLimitRefillInterval: time.Duration(envInt("RATE_LIMIT_REFILL_INTERVAL_MS", 1000)) * time.Millisecond,
		LogFile:                 envOr("LOG_FILE", "./logs/api.log"),
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("config: DB_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	if v := os.Getenv("FX_RATE_JOD_TO_USD"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("config: invalid FX_RATE_JOD_TO_USD: %q", v)
		}
		cfg.FxRateJodToUsd = rate
	}

	if cfg.HoldWindow < time.Minute {
		return Config{}, fmt.Errorf("config: HOLD_WINDOW_MINUTES must be at least 1")
	}

	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "on":
		return true
	case "0", "false", "FALSE", "no", "off":
		return false
	default:
		return def
	}
}
