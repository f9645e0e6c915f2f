package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketBrief/internal/session"
)

// Error is a configuration problem on one field.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func fieldErr(field, msg string) error { return &Error{Field: field, Err: errors.New(msg)} }

// Config holds all application configuration.
type Config struct {
	Sessions []session.Definition `yaml:"sessions"`
	Market   struct {
		Source       string            `yaml:"source"` // yahoo or mock
		Universe     []string          `yaml:"universe"`
		DisplayNames map[string]string `yaml:"display_names"`
		Period       string            `yaml:"period"`
		Interval     string            `yaml:"interval"`
		YahooBaseURL string            `yaml:"yahoo_base_url"`
		Timeout      time.Duration     `yaml:"timeout"`
	} `yaml:"market"`
	News struct {
		NewsAPIKey      string `yaml:"newsapi_key"`
		AlphaVantageKey string `yaml:"alphavantage_key"`
		FinnhubKey      string `yaml:"finnhub_key"`
		HoursBack       int    `yaml:"hours_back"`
		MaxItems        int    `yaml:"max_items"`
	} `yaml:"news"`
	LLM struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"llm"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		WarmOnOpen bool `yaml:"warm_on_open"`
		Briefing   bool `yaml:"briefing"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// DefaultSessions are the Asia, Europe, US and after-hours windows.
func DefaultSessions() []session.Definition {
	return []session.Definition{
		{Name: "Asia", Timezone: "Asia/Singapore", Open: "09:00", Close: "16:30"},
		{Name: "Europe", Timezone: "Europe/London", Open: "08:00", Close: "16:30"},
		{Name: "US", Timezone: "America/New_York", Open: "09:30", Close: "16:00"},
		{Name: "After-Hours", Timezone: "America/New_York", Open: "16:00", Close: "20:00"},
	}
}

// DefaultUniverse is the core cross-asset list.
func DefaultUniverse() []string {
	return []string{"^GSPC", "^NDX", "^DJI", "DX-Y.NYB", "^VIX", "^TNX", "GC=F", "CL=F", "BTC-USD"}
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file is not an error.
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

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"NEWSAPI_KEY":        &c.News.NewsAPIKey,
		"ALPHAVANTAGE_KEY":   &c.News.AlphaVantageKey,
		"FINNHUB_KEY":        &c.News.FinnhubKey,
		"LLM_API_KEY":        &c.LLM.APIKey,
		"LLM_BASE_URL":       &c.LLM.BaseURL,
		"LLM_MODEL":          &c.LLM.Model,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"HTTPS_PROXY":        &c.Proxy,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"LOG_LEVEL":          &c.Logging.Level,
		"LOG_FILE":           &c.Logging.File,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		var tickers []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
		c.Market.Universe = tickers
	}
}

func (c *Config) applyDefaults() {
	if len(c.Sessions) == 0 {
		c.Sessions = DefaultSessions()
	}
	if len(c.Market.Universe) == 0 {
		c.Market.Universe = DefaultUniverse()
	}
	if c.Market.DisplayNames == nil {
		c.Market.DisplayNames = map[string]string{"DX-Y.NYB": "DXY"}
	}
	if c.Market.Source == "" {
		c.Market.Source = "yahoo"
	}
	if c.Market.Period == "" {
		c.Market.Period = "6mo"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1d"
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 30 * time.Second
	}
	if c.News.HoursBack == 0 {
		c.News.HoursBack = 48
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 10
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the fields the process cannot start without.
func (c *Config) Validate() error {
	if _, err := session.NewClock(c.Sessions); err != nil {
		return &Error{Field: "sessions", Err: err}
	}
	if len(c.Market.Universe) == 0 {
		return fieldErr("market.universe", "at least one ticker is required")
	}
	seen := make(map[string]bool, len(c.Market.Universe))
	for _, t := range c.Market.Universe {
		if seen[t] {
			return fieldErr("market.universe", fmt.Sprintf("duplicate ticker %q", t))
		}
		seen[t] = true
	}
	if c.Market.Source != "yahoo" && c.Market.Source != "mock" {
		return fieldErr("market.source", fmt.Sprintf("unknown source %q", c.Market.Source))
	}
	if c.Market.Timeout < 0 {
		return fieldErr("market.timeout", "must not be negative")
	}
	if c.News.MaxItems < 0 || c.News.HoursBack < 0 {
		return fieldErr("news", "hours_back and max_items must not be negative")
	}
	return nil
}

// ValidateTelegram checks the settings needed by the serve command.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fieldErr("telegram.bot_token", "is required")
	}
	if c.Telegram.ChatID == "" {
		return fieldErr("telegram.chat_id", "is required")
	}
	return nil
}
