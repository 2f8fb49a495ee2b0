package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken    string
	BotUsername string

	// Webhook transport; long polling is used when WebhookURL is empty
	WebhookURL    string
	WebhookSecret string

	// HTTP
	HTTPHost string
	HTTPPort int

	// Database
	DBPath       string
	BackupDir    string
	StoreTimeout time.Duration

	// Authorization base sets, fixed for the process lifetime
	AdminIDs       []int64
	SpecialUserIDs []int64

	// Redis form store; in-memory forms when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ops API
	APISecret string

	// Presentation
	EscrowPaymentDetails string
	SupportContact       string
	TempMessageTTL       time.Duration

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		// Telegram
		BotToken:    getEnv("BOT_TOKEN", ""),
		BotUsername: strings.TrimPrefix(getEnv("BOT_USERNAME", "otc_escrow_bot"), "@"),

		// Webhook
		WebhookURL:    strings.TrimSuffix(getEnv("WEBHOOK_URL", ""), "/"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		// HTTP
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnvInt("PORT", getEnvInt("HTTP_PORT", 8080)),

		// Database
		DBPath:       getEnv("DB_PATH", "./otc.db"),
		BackupDir:    getEnv("BACKUP_DIR", "./backups"),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		// Authorization
		AdminIDs:       getEnvIDs("ADMIN_IDS"),
		SpecialUserIDs: getEnvIDs("SPECIAL_USER_IDS"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Ops API
		APISecret: getEnv("API_SECRET", ""),

		// Presentation
		EscrowPaymentDetails: getEnv("ESCROW_PAYMENT_DETAILS", ""),
		SupportContact:       getEnv("SUPPORT_CONTACT", ""),
		TempMessageTTL:       getEnvDuration("TEMP_MESSAGE_TTL", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// WebhookPath is the HTTP path the bot webhook is served on
func (c *Config) WebhookPath() string {
	return "/webhook"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("5s") or plain seconds ("5")
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

// getEnvIDs parses a comma-separated list of user IDs, skipping bad entries
func getEnvIDs(key string) []int64 {
	var ids []int64
	for _, idStr := range strings.Split(getEnv(key, ""), ",") {
		idStr = strings.TrimSpace(idStr)
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
