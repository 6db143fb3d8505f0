package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SinkSheets   = "sheets"
	SinkPostgres = "postgres"
	SinkSQLite   = "sqlite"

	SessionStoreMemory = "memory"
	SessionStoreBolt   = "bolt"
)

type Config struct {
	BotToken      string  `env:"TELEGRAM_TOKEN"`
	LegacyToken   string  `env:"BOT_TOKEN"`
	AdminChatIDs  []int64 `env:"ADMIN_CHAT_IDS" envSeparator:","`
	StrictChoices bool    `env:"STRICT_CHOICES" envDefault:"false"`
	Timezone      string  `env:"TIMEZONE" envDefault:"Asia/Tashkent"`

	Sink        string        `env:"SINK" envDefault:"sheets"`
	SinkTimeout time.Duration `env:"SINK_TIMEOUT" envDefault:"15s"`

	GoogleCredentialsJSON string  `env:"GOOGLE_CREDENTIALS_JSON"`
	SpreadsheetID         string  `env:"SPREADSHEET_ID"`
	SpreadsheetName       string  `env:"SPREADSHEET_NAME" envDefault:"Talabalar Qabuli"`
	SheetRange            string  `env:"SHEET_RANGE" envDefault:"A1"`
	SheetsWritesPerMinute float64 `env:"SHEETS_WRITES_PER_MINUTE" envDefault:"60"`

	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"registrations.db"`

	SessionStore  string `env:"SESSION_STORE" envDefault:"memory"`
	SessionDBPath string `env:"SESSION_DB_PATH" envDefault:"sessions.bolt"`

	MetricsAddr        string  `env:"METRICS_ADDR"`
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"1"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse env: %w", err)
	}

	if cfg.BotToken == "" {
		cfg.BotToken = cfg.LegacyToken
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config.Load: TELEGRAM_TOKEN is required")
	}

	cfg.Sink = strings.ToLower(strings.TrimSpace(cfg.Sink))
	switch cfg.Sink {
	case SinkSheets:
		if cfg.GoogleCredentialsJSON == "" {
			return nil, fmt.Errorf("config.Load: GOOGLE_CREDENTIALS_JSON is required")
		}
		if cfg.SpreadsheetID == "" && cfg.SpreadsheetName == "" {
			return nil, fmt.Errorf("config.Load: SPREADSHEET_ID or SPREADSHEET_NAME is required")
		}
	case SinkPostgres:
		if cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("config.Load: DB_USER, DB_PASSWORD, DB_NAME are required")
		}
	case SinkSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("config.Load: SQLITE_PATH is required")
		}
	default:
		return nil, fmt.Errorf("config.Load: unknown SINK %q", cfg.Sink)
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStoreBolt {
		return nil, fmt.Errorf("config.Load: unknown SESSION_STORE %q", cfg.SessionStore)
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("config.Load: invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location returns the zone used for submission timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
