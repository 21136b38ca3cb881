package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken        string
	BotUsername     string
	SupportUsername string

	// Principals
	OwnerID int64
	Admins  map[int64]bool

	// Admin groups receiving deposit / purchase notifications
	RechargeGroupID int64
	PurchaseGroupID int64

	// Storage
	DBPath      string
	CatalogPath string
	EnvPath     string

	// Expiry sweep
	SweepSchedule string
	SweepHorizon  time.Duration
}

func Load() *Config {
	cfg := &Config{
		// Telegram
		BotToken:        getEnv("BOT_TOKEN", ""),
		BotUsername:     getEnv("BOT_USERNAME", "diamond_store_bot"),
		SupportUsername: getEnv("SUPPORT_USERNAME", ""),

		// Principals
		OwnerID: getEnvInt64("OWNER_ID", 0),

		// Groups
		RechargeGroupID: getEnvInt64("RECHARGE_GROUP_ID", 0),
		PurchaseGroupID: getEnvInt64("PURCHASE_GROUP_ID", 0),

		// Storage
		DBPath:      getEnv("DB_PATH", "./diamond_store.db"),
		CatalogPath: getEnv("CATALOG_PATH", "./products.json"),
		EnvPath:     getEnv("ENV_PATH", ".env"),

		// Expiry sweep: hourly pass, 24h pending horizon
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 * * * *"),
		SweepHorizon:  getEnvDuration("SWEEP_HORIZON", 24*time.Hour),
	}

	// Parse admin IDs; the owner is always an admin
	cfg.Admins = make(map[int64]bool)
	if cfg.OwnerID != 0 {
		cfg.Admins[cfg.OwnerID] = true
	}
	for _, idStr := range strings.Split(getEnv("ADMINS", ""), ",") {
		idStr = strings.TrimSpace(idStr)
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			cfg.Admins[id] = true
		}
	}

	return cfg
}

// IsAdmin reports whether a principal may use the admin panel
func (c *Config) IsAdmin(userID int64) bool {
	return c.Admins[userID]
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
