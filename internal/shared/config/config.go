package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string

	// LLM extraction
	LLMProvider  string
	LLMModel     string
	LLMMaxTokens int
	ClaudeAPIKey string
	OpenAIAPIKey string

	// Zoho Books seeds (copied into the settings table when empty)
	ZohoAPIDomain      string
	ZohoTokenURL       string
	ZohoOrganizationID string
	ZohoClientID       string
	ZohoClientSecret   string
	ZohoRefreshToken   string

	VendorMode      string // "auto" or "confirm"
	DefaultCurrency string
	MaxUploadMB     int

	// Background tasks
	TokenRefreshInterval time.Duration
	WatchInterval        time.Duration

	// Document store
	StorageProvider    string // "local" or "s3"
	StorageLocalPath   string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string

	// Optional admin auth
	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        os.Getenv("PORT"),
		Env:         os.Getenv("ENV"),

		LLMProvider:  os.Getenv("LLM_PROVIDER"),
		LLMModel:     os.Getenv("LLM_MODEL"),
		LLMMaxTokens: getInt("LLM_MAX_TOKENS", 4096),
		ClaudeAPIKey: firstNonEmpty(os.Getenv("CLAUDE_API_KEY"), os.Getenv("ANTHROPIC_API_KEY")),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),

		ZohoAPIDomain:      os.Getenv("ZOHO_API_DOMAIN"),
		ZohoTokenURL:       os.Getenv("ZOHO_TOKEN_URL"),
		ZohoOrganizationID: os.Getenv("ZOHO_ORGANIZATION_ID"),
		ZohoClientID:       os.Getenv("ZOHO_CLIENT_ID"),
		ZohoClientSecret:   os.Getenv("ZOHO_CLIENT_SECRET"),
		ZohoRefreshToken:   os.Getenv("ZOHO_REFRESH_TOKEN"),

		VendorMode:      os.Getenv("VENDOR_MODE"),
		DefaultCurrency: os.Getenv("DEFAULT_CURRENCY"),
		MaxUploadMB:     getInt("MAX_UPLOAD_MB", 20),

		TokenRefreshInterval: getDuration("TOKEN_REFRESH_INTERVAL", 5*time.Minute),
		WatchInterval:        getDuration("WATCH_INTERVAL", time.Minute),

		StorageProvider:    os.Getenv("STORAGE_PROVIDER"),
		StorageLocalPath:   os.Getenv("STORAGE_LOCAL_PATH"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		S3Bucket:           os.Getenv("S3_BUCKET"),

		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "claude"
	}
	if cfg.ZohoAPIDomain == "" {
		cfg.ZohoAPIDomain = "https://www.zohoapis.com"
	}
	if cfg.ZohoTokenURL == "" {
		cfg.ZohoTokenURL = "https://accounts.zoho.com/oauth/v2/token"
	}
	if cfg.VendorMode != "confirm" {
		cfg.VendorMode = "auto"
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "CAD"
	}
	if cfg.StorageProvider == "" {
		cfg.StorageProvider = "local"
	}
	if cfg.StorageLocalPath == "" {
		cfg.StorageLocalPath = "./data/documents"
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "us-east-1"
	}

	return cfg
}

// AuthEnabled reports whether the admin login is configured.
func (c *Config) AuthEnabled() bool {
	return c.AdminUsername != "" && c.AdminPasswordHash != "" && c.JWTSecret != ""
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer, using default")
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
