package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const dateLayout = "2006-01-02"

// Config holds every tunable of a study run. Zero values of the optional
// exporter settings disable the corresponding exporter.
type Config struct {
	OutputDir       string        `envconfig:"OUTPUT_DIR" default:"output"`
	Start           string        `envconfig:"START" default:"2016-01-01"`
	End             string        `envconfig:"END"`
	RollingWindow   int           `envconfig:"ROLLING_WINDOW" default:"90"`
	FetchRetries    int           `envconfig:"FETCH_RETRIES" default:"0"`
	RequestInterval time.Duration `envconfig:"REQUEST_INTERVAL" default:"120ms"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	CorrAlignment   string        `envconfig:"CORR_ALIGNMENT" default:"pairwise"`
	SQLitePath      string        `envconfig:"SQLITE_PATH"`

	OpenAIKey      string `envconfig:"OPENAI_API_KEY" ignored:"true"`
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN" ignored:"true"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID" ignored:"true"`
}

// Load reads an optional .env file, then STUDY_* variables plus the
// unprefixed credentials. Callers validate after applying overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("STUDY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	var creds struct {
		OpenAIKey      string `envconfig:"OPENAI_API_KEY"`
		TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
		TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
	}
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("failed to load credentials from env: %w", err)
	}
	cfg.OpenAIKey = creds.OpenAIKey
	cfg.TelegramToken = creds.TelegramToken
	cfg.TelegramChatID = creds.TelegramChatID
	return &cfg, nil
}

// Validate checks dates, the rolling window and the alignment mode.
func (c *Config) Validate() error {
	if _, err := c.StartDate(); err != nil {
		return err
	}
	if _, err := c.EndDate(); err != nil {
		return err
	}
	if c.RollingWindow < 2 {
		return fmt.Errorf("rolling window must be at least 2, got %d", c.RollingWindow)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("fetch retries must not be negative, got %d", c.FetchRetries)
	}
	switch strings.ToLower(c.CorrAlignment) {
	case "pairwise", "complete":
	default:
		return fmt.Errorf("invalid correlation alignment %q (use pairwise or complete)", c.CorrAlignment)
	}
	return nil
}

// StartDate parses Start as a UTC calendar date.
func (c *Config) StartDate() (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(c.Start))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: %w", c.Start, err)
	}
	return t, nil
}

// EndDate parses End; an empty End yields the zero time, meaning latest
// available.
func (c *Config) EndDate() (time.Time, error) {
	end := strings.TrimSpace(c.End)
	if end == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid end date %q: %w", c.End, err)
	}
	return t, nil
}

// PairwiseCorrelation reports whether the correlation matrix uses
// pairwise-complete observations.
func (c *Config) PairwiseCorrelation() bool {
	return !strings.EqualFold(c.CorrAlignment, "complete")
}

// TelegramEnabled reports whether both the bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
