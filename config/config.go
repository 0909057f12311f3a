package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned by Validate when the Telegram settings are absent.
var ErrMissingCredentials = errors.New("config: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	NotifyRateMs     int

	SearchURL  string
	SearchCity string
	MaxPrice   int
	MinSize    int

	FetchMode       string
	ChromeBin       string
	MaxRetries      int
	FetchTimeoutSec int
	BlockStatus     int

	PollMinSec int
	PollMaxSec int

	StoreBackend     string
	SeenListingsFile string
	ErrorStatusFile  string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ArchiveCSVPath string
	StatusAddr     string
	LogLevel       string

	Filters Filters

	// chatIDRaw keeps the unparsed value so Validate can report it.
	chatIDRaw string
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		NotifyRateMs:     getEnvInt("NOTIFY_RATE_MS", 1100),
		chatIDRaw:        getEnv("TELEGRAM_CHAT_ID", ""),

		SearchURL:  getEnv("SEARCH_URL", ""),
		SearchCity: getEnv("SEARCH_CITY", "barcelona-barcelona"),
		MaxPrice:   getEnvInt("MAX_PRICE", 1400),
		MinSize:    getEnvInt("MIN_SIZE", 40),

		FetchMode:       strings.ToLower(getEnv("FETCH_MODE", "http")),
		ChromeBin:       getEnv("CHROME_BIN", ""),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 30),
		BlockStatus:     getEnvInt("BLOCK_STATUS", 403),

		PollMinSec: getEnvInt("POLL_MIN_SEC", 60),
		PollMaxSec: getEnvInt("POLL_MAX_SEC", 120),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", "file")),
		SeenListingsFile: getEnv("SEEN_LISTINGS_FILE", "./data/seen_listings.json"),
		ErrorStatusFile:  getEnv("ERROR_STATUS_FILE", "./data/error_status.json"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/watcher.sqlite"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "watcher"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "watcher"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ArchiveCSVPath: getEnv("ARCHIVE_CSV_PATH", ""),
		StatusAddr:     getEnv("STATUS_ADDR", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	cfg.Filters = DefaultFilters()
	cfg.Filters.ExcludedAreas = getEnvList("EXCLUDED_AREAS", cfg.Filters.ExcludedAreas)
	cfg.Filters.ExcludedFloors = getEnvList("EXCLUDED_FLOORS", cfg.Filters.ExcludedFloors)
	cfg.Filters.ExcludedTerms = getEnvList("EXCLUDED_TERMS", cfg.Filters.ExcludedTerms)
	cfg.Filters.HighlightTerms = getEnvList("HIGHLIGHT_TERMS", cfg.Filters.HighlightTerms)

	if path := getEnv("FILTERS_FILE", ""); path != "" {
		f, err := LoadFilters(path)
		if err != nil {
			return nil, err
		}
		cfg.Filters = cfg.Filters.Merge(f)
	}

	if cfg.chatIDRaw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(cfg.chatIDRaw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: TELEGRAM_CHAT_ID %q: %w", cfg.chatIDRaw, err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.PollMinSec < 1 {
		cfg.PollMinSec = 1
	}
	if cfg.PollMaxSec < cfg.PollMinSec {
		cfg.PollMaxSec = cfg.PollMinSec
	}

	return cfg, nil
}

// Validate reports configuration the watcher cannot start without.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" || c.TelegramChatID == 0 {
		return ErrMissingCredentials
	}
	switch c.FetchMode {
	case "http", "browser":
	default:
		return fmt.Errorf("config: unknown FETCH_MODE %q", c.FetchMode)
	}
	switch c.StoreBackend {
	case "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable. Blank entries are dropped.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return splitList(val)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
