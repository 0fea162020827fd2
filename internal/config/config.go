package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends understood by DATA_BACKEND.
const (
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

type Config struct {
	// Supabase
	SupabaseURL string
	SupabaseKey string

	// Telegram
	TelegramToken string

	DataBackend string

	// Reporting
	Currency         string
	CurrencyFraction int
	WindowDays       int
	TopN             int
	ChartSize        int
	ReportCacheTTL   time.Duration

	LogLevel       string
	KeyringService string
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return &Config{
		SupabaseURL:   os.Getenv("SUPABASE_URL"),
		SupabaseKey:   os.Getenv("SUPABASE_KEY"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		DataBackend: getEnv("DATA_BACKEND", BackendSupabase),

		Currency:         strings.ToUpper(getEnv("CURRENCY", "LKR")),
		CurrencyFraction: getEnvInt("CURRENCY_FRACTION", 0),
		WindowDays:       getEnvInt("WINDOW_DAYS", 30),
		TopN:             getEnvInt("TOP_N", 5),
		ChartSize:        getEnvInt("CHART_SIZE", 220),
		ReportCacheTTL:   getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		KeyringService: getEnv("KEYRING_SERVICE", "wallet"),
	}, nil
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.DataBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" {
			problems = append(problems, "SUPABASE_URL is required when using supabase backend")
		} else if !strings.HasPrefix(c.SupabaseURL, "https://") && !strings.HasPrefix(c.SupabaseURL, "http://") {
			problems = append(problems, fmt.Sprintf("invalid SUPABASE_URL '%s': must be an http(s) URL", c.SupabaseURL))
		}
		if c.SupabaseKey == "" {
			problems = append(problems, "SUPABASE_KEY is required when using supabase backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendSupabase, BackendMemory))
	}

	if len(c.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid currency '%s': must be a 3-letter ISO code", c.Currency))
	}
	if c.CurrencyFraction < 0 || c.CurrencyFraction > 4 {
		problems = append(problems, fmt.Sprintf("invalid currency fraction %d: must be between 0 and 4", c.CurrencyFraction))
	}
	if c.WindowDays < 1 || c.WindowDays > 366 {
		problems = append(problems, fmt.Sprintf("invalid window %d days: must be between 1 and 366", c.WindowDays))
	}
	if c.TopN < 1 || c.TopN > 12 {
		problems = append(problems, fmt.Sprintf("invalid top-N %d: must be between 1 and 12", c.TopN))
	}
	if c.ChartSize < 64 {
		problems = append(problems, fmt.Sprintf("invalid chart size %d: must be at least 64", c.ChartSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// RequireTelegram is checked by the bot entry points only.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
