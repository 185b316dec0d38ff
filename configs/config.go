package config

import (
	"os"
	"strconv"
	"strings"
)

type R2 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Publishing struct {
	WindowStartHour     int
	WindowEndHour       int
	Timezone            string
	BatchSize           int
	MaxAttempts         int
	PollIntervalSeconds int
	PollBudgetSingle    int
	PollBudgetCarousel  int
	PacingSeconds       int
	StaleAfterHours     int
	ClaimTimeoutMinutes int
	AllowedMediaTypes   []string
}

type Config struct {
	PostgresURI         string
	RedisURI            string
	GatewayBaseURL      string
	LegacyIGAccessToken string
	LegacyIGUserID      string
	Publishing          Publishing
	R2                  R2
	SecretKey           string
	CookieName          string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", "127.0.0.1:6379"),
		GatewayBaseURL:      getEnv("GATEWAY_BASE_URL", ""),
		LegacyIGAccessToken: getEnv("LEGACY_IG_ACCESS_TOKEN", ""),
		LegacyIGUserID:      getEnv("LEGACY_IG_USER_ID", ""),
		Publishing: Publishing{
			WindowStartHour:     getEnvInt("PUBLISH_WINDOW_START", 7),
			WindowEndHour:       getEnvInt("PUBLISH_WINDOW_END", 23),
			Timezone:            getEnv("PUBLISH_TIMEZONE", "UTC"),
			BatchSize:           getEnvInt("PUBLISH_BATCH_SIZE", 5),
			MaxAttempts:         getEnvInt("MAX_PUBLISH_ATTEMPTS", 3),
			PollIntervalSeconds: getEnvInt("POLL_INTERVAL_SECONDS", 1),
			PollBudgetSingle:    getEnvInt("POLL_BUDGET_SINGLE", 60),
			PollBudgetCarousel:  getEnvInt("POLL_BUDGET_CAROUSEL", 120),
			PacingSeconds:       getEnvInt("PACING_SECONDS", 2),
			StaleAfterHours:     getEnvInt("STALE_AFTER_HOURS", 24),
			ClaimTimeoutMinutes: getEnvInt("CLAIM_TIMEOUT_MINUTES", 5),
			AllowedMediaTypes:   getEnvList("ALLOWED_MEDIA_TYPES", []string{"image/jpeg", "image/png", "video/mp4", "video/quicktime"}),
		},
		R2: R2{
			AccountID:     getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:     getEnv("R2_ACCESS_KEY", ""),
			SecretKey:     getEnv("R2_SECRET_KEY", ""),
			BucketName:    getEnv("R2_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "autopost_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
