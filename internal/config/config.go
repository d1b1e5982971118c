package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"PredictionTracker/internal/tracker"
)

// Data source names.
const (
	SourceYahoo    = "yahoo"
	SourceQuoteAPI = "quote_api"
	SourceMock     = "mock"
)

var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	LogLevel   string     `yaml:"log_level" env:"LOG_LEVEL"`
	Telegram   Telegram   `yaml:"telegram"`
	DataSource DataSource `yaml:"data_source"`
	Poll       Poll       `yaml:"poll"`
	Schedule   Schedule   `yaml:"schedule"`
	Storage    Storage    `yaml:"storage"`
	Proxy      string     `yaml:"proxy" env:"HTTPS_PROXY"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// DataSource selects the price source. BaseURL and APIKey belong to the
// quote API; QuoteURL, SearchURL and UserAgent to Yahoo.
type DataSource struct {
	Name      string        `yaml:"name" env:"DATA_SOURCE"`
	BaseURL   string        `yaml:"base_url" env:"QUOTE_API_BASE_URL"`
	APIKey    string        `yaml:"api_key" env:"QUOTE_API_KEY"`
	QuoteURL  string        `yaml:"quote_url" env:"YAHOO_CHART_URL"`
	SearchURL string        `yaml:"search_url" env:"YAHOO_SEARCH_URL"`
	UserAgent string        `yaml:"user_agent" env:"YAHOO_FINANCE_USER_AGENT"`
	Timeout   time.Duration `yaml:"timeout" env:"DATA_SOURCE_TIMEOUT"`
	MockPrice float64       `yaml:"mock_price" env:"MOCK_PRICE"`
}

type Poll struct {
	NormalMin  time.Duration `yaml:"normal_min" env:"POLL_NORMAL_MIN"`
	NormalMax  time.Duration `yaml:"normal_max" env:"POLL_NORMAL_MAX"`
	BackoffMin time.Duration `yaml:"backoff_min" env:"POLL_BACKOFF_MIN"`
	BackoffMax time.Duration `yaml:"backoff_max" env:"POLL_BACKOFF_MAX"`
}

type Schedule struct {
	DigestCron string `yaml:"digest_cron" env:"CRON_DIGEST"`
	ExpiryCron string `yaml:"expiry_cron" env:"CRON_EXPIRY"`
}

type Storage struct {
	PredictionsLog string `yaml:"predictions_log" env:"PREDICTIONS_LOG"`
	SQLitePath     string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// Load reads config from a YAML file, then a .env file in the working
// directory, then environment variable overrides. Missing files are not an
// error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataSource.Name == "" {
		c.DataSource.Name = SourceYahoo
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 10 * time.Second
	}
	if c.DataSource.MockPrice == 0 {
		c.DataSource.MockPrice = 100
	}
	if c.Poll.NormalMin == 0 {
		c.Poll.NormalMin = tracker.DefaultPolicy.Normal.Min
	}
	if c.Poll.NormalMax == 0 {
		c.Poll.NormalMax = tracker.DefaultPolicy.Normal.Max
	}
	if c.Poll.BackoffMin == 0 {
		c.Poll.BackoffMin = tracker.DefaultPolicy.Backoff.Min
	}
	if c.Poll.BackoffMax == 0 {
		c.Poll.BackoffMax = tracker.DefaultPolicy.Backoff.Max
	}
	if c.Storage.PredictionsLog == "" {
		c.Storage.PredictionsLog = "predictions.json"
	}
}

// Policy returns the poll delay windows.
func (c *Config) Policy() tracker.Policy {
	return tracker.Policy{
		Normal:  tracker.Window{Min: c.Poll.NormalMin, Max: c.Poll.NormalMax},
		Backoff: tracker.Window{Min: c.Poll.BackoffMin, Max: c.Poll.BackoffMax},
	}
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks field consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("%w: telegram.bot_token and telegram.chat_id must be set together", ErrInvalid)
	}

	switch c.DataSource.Name {
	case SourceYahoo:
	case SourceQuoteAPI:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for %s", ErrInvalid, SourceQuoteAPI)
		}
	case SourceMock:
		if c.DataSource.MockPrice <= 0 {
			return fmt.Errorf("%w: data_source.mock_price must be positive", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown data_source.name %q", ErrInvalid, c.DataSource.Name)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("%w: data_source.timeout must not be negative", ErrInvalid)
	}

	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: poll: %w", ErrInvalid, err)
	}

	for name, spec := range map[string]string{
		"schedule.digest_cron": c.Schedule.DigestCron,
		"schedule.expiry_cron": c.Schedule.ExpiryCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := cronParser.Parse(spec); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, name, err)
		}
	}
	return nil
}
