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
	OAuth    OAuthConfig
	Credits  CreditsConfig
	LLM      LLMConfig
	Payment  PaymentConfig
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
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
}

// CreditsConfig controls credit ledger defaults.
type CreditsConfig struct {
	SignupGrant int64 // credits granted once on account creation
}

// LLMConfig points at an OpenAI-compatible chat completion backend.
type LLMConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxTokens     uint32
	CallTimeout   time.Duration
	HistoryWindow int // recent messages sent as generation context
}

type PaymentConfig struct {
	WebhookSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8099"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "amoria:amoria@tcp(localhost:3306)/amoria?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "amoria",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		Credits: CreditsConfig{
			SignupGrant: getenvInt64("SIGNUP_CREDITS", 100),
		},
		LLM: LLMConfig{
			BaseURL:       getenv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:        os.Getenv("LLM_API_KEY"),
			Model:         getenv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:     1024,
			CallTimeout:   45 * time.Second,
			HistoryWindow: 30,
		},
		Payment: PaymentConfig{
			WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
