package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

// GatewayConfig carries everything the payment gateway client and the capture
// engine need. It is built once at startup and injected, so gateway secrets
// and TTLs are never read ambiently from the environment mid-request.
type GatewayConfig struct {
	KeyID       string
	KeySecret   string
	BaseURL     string
	Currency    string
	HTTPTimeout time.Duration
	IntentTTL   time.Duration
}

func LoadGatewayConfig() GatewayConfig {
	cfg := GatewayConfig{
		KeyID:       Config("GATEWAY_KEY_ID"),
		KeySecret:   Config("GATEWAY_KEY_SECRET"),
		BaseURL:     Config("GATEWAY_BASE_URL"),
		Currency:    Config("GATEWAY_CURRENCY"),
		HTTPTimeout: 10 * time.Second,
		IntentTTL:   30 * time.Minute,
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if v := Config("GATEWAY_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.HTTPTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := Config("GATEWAY_INTENT_TTL_MINUTES"); v != "" {
		if mins, err := strconv.Atoi(v); err == nil && mins > 0 {
			cfg.IntentTTL = time.Duration(mins) * time.Minute
		}
	}

	if cfg.KeyID == "" || cfg.KeySecret == "" {
		log.Println("⚠️ Gateway credentials are not configured. Online payments will fail until GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are set.")
	}

	return cfg
}
