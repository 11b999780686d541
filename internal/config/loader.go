package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PAPERTRADE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PAPERTRADE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Account ──
	setFloat64(&cfg.Account.InitialCapital, "PAPERTRADE_ACCOUNT_INITIAL_CAPITAL")
	setFloat64(&cfg.Account.CommissionRate, "PAPERTRADE_ACCOUNT_COMMISSION_RATE")

	// ── Monitor ──
	setDuration(&cfg.Monitor.Interval, "PAPERTRADE_MONITOR_INTERVAL")
	setInt(&cfg.Monitor.MaxSymbols, "PAPERTRADE_MONITOR_MAX_SYMBOLS")
	setFloat64(&cfg.Monitor.MaxPositionFraction, "PAPERTRADE_MONITOR_MAX_POSITION_FRACTION")

	// ── Quote ──
	setStr(&cfg.Quote.BaseURL, "PAPERTRADE_QUOTE_BASE_URL")
	setDuration(&cfg.Quote.Timeout, "PAPERTRADE_QUOTE_TIMEOUT")
	setDuration(&cfg.Quote.CacheTTL, "PAPERTRADE_QUOTE_CACHE_TTL")
	setStr(&cfg.Quote.Timezone, "PAPERTRADE_QUOTE_TIMEZONE")
	setInt(&cfg.Quote.OpenHour, "PAPERTRADE_QUOTE_OPEN_HOUR")
	setInt(&cfg.Quote.CloseHour, "PAPERTRADE_QUOTE_CLOSE_HOUR")

	// ── Database ──
	setStr(&cfg.Database.DSN, "PAPERTRADE_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "PAPERTRADE_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "PAPERTRADE_DATABASE_HOST")
	setInt(&cfg.Database.Port, "PAPERTRADE_DATABASE_PORT")
	setStr(&cfg.Database.Database, "PAPERTRADE_DATABASE_NAME")
	setStr(&cfg.Database.User, "PAPERTRADE_DATABASE_USER")
	setStr(&cfg.Database.Password, "PAPERTRADE_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "PAPERTRADE_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "PAPERTRADE_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "PAPERTRADE_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "PAPERTRADE_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PAPERTRADE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PAPERTRADE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PAPERTRADE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PAPERTRADE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PAPERTRADE_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "PAPERTRADE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PAPERTRADE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PAPERTRADE_S3_REGION")
	setStr(&cfg.S3.Bucket, "PAPERTRADE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PAPERTRADE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PAPERTRADE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PAPERTRADE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PAPERTRADE_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "PAPERTRADE_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "PAPERTRADE_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Archive.Cron, "PAPERTRADE_ARCHIVE_CRON")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PAPERTRADE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PAPERTRADE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PAPERTRADE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PAPERTRADE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PAPERTRADE_MODE")
	setStr(&cfg.LogLevel, "PAPERTRADE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
