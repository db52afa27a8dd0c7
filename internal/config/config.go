package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	MongoDB     MongoDBConfig
	Sheets      SheetsConfig
	Notify      NotifyConfig
	Procurement ProcurementConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export to Google Sheets.
// Export is disabled when CredentialsPath is empty.
type SheetsConfig struct {
	CredentialsPath  string
	SpreadsheetID    string
	ProcurementRange string
}

// Enabled reports whether spreadsheet export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != ""
}

// NotifyConfig configures the chat webhook procurement summaries are posted to.
type NotifyConfig struct {
	WebhookURL string
	Token      string
}

// ProcurementConfig holds the scheduled procurement run settings.
type ProcurementConfig struct {
	CronSchedule string
	Timezone     string
	UnitIDs      []string
	HorizonDays  int
	// MaxRangeDays caps the date range of one generation request.
	MaxRangeDays int
	// FetchConcurrency caps in-flight store reads per generation.
	FetchConcurrency int
}

// Location resolves the configured timezone.
func (c ProcurementConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when the environment is set directly.
		_ = godotenv.Load()
	}

	horizon, err := strconv.Atoi(getenvWithDefault("PROCUREMENT_HORIZON_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("PROCUREMENT_HORIZON_DAYS must be an integer: %w", err)
	}

	maxRange, err := strconv.Atoi(getenvWithDefault("PROCUREMENT_MAX_RANGE_DAYS", "366"))
	if err != nil {
		return nil, fmt.Errorf("PROCUREMENT_MAX_RANGE_DAYS must be an integer: %w", err)
	}

	fetchConcurrency, err := strconv.Atoi(getenvWithDefault("PROCUREMENT_FETCH_CONCURRENCY", "16"))
	if err != nil {
		return nil, fmt.Errorf("PROCUREMENT_FETCH_CONCURRENCY must be an integer: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "mess_maestro"),
		},
		Sheets: SheetsConfig{
			CredentialsPath:  os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:    os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ProcurementRange: getenvWithDefault("GOOGLE_SHEET_PROCUREMENT_RANGE", "Procurement!A:G"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
			Token:      os.Getenv("NOTIFY_WEBHOOK_TOKEN"),
		},
		Procurement: ProcurementConfig{
			CronSchedule: getenvWithDefault("PROCUREMENT_CRON_SCHEDULE", "0 18 * * 5"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
			UnitIDs:      splitList(os.Getenv("PROCUREMENT_UNIT_IDS")),
			HorizonDays:  horizon,

			MaxRangeDays:     maxRange,
			FetchConcurrency: fetchConcurrency,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Sheets.Enabled() {
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided when sheets export is enabled")
		}
		if c.Sheets.ProcurementRange == "" {
			return errors.New("GOOGLE_SHEET_PROCUREMENT_RANGE must not be empty")
		}
	}

	if c.Procurement.CronSchedule == "" {
		return errors.New("PROCUREMENT_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Procurement.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.Procurement.HorizonDays < 1 {
		return errors.New("PROCUREMENT_HORIZON_DAYS must be at least 1")
	}

	if c.Procurement.MaxRangeDays < 1 {
		return errors.New("PROCUREMENT_MAX_RANGE_DAYS must be at least 1")
	}

	if c.Procurement.HorizonDays > c.Procurement.MaxRangeDays {
		return errors.New("PROCUREMENT_HORIZON_DAYS must not exceed PROCUREMENT_MAX_RANGE_DAYS")
	}

	if c.Procurement.FetchConcurrency < 1 {
		return errors.New("PROCUREMENT_FETCH_CONCURRENCY must be at least 1")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
