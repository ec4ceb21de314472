package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBotToken      string   `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	OpenWeatherAPIKey     string   `envconfig:"OPENWEATHER_API_KEY" required:"true"`
	DatabasePath          string   `envconfig:"DATABASE_PATH" default:"weatherbot.db"`
	Timezone              string   `envconfig:"TIMEZONE" default:"Europe/Prague"`
	DefaultNotifyHour     int      `envconfig:"DEFAULT_NOTIFY_HOUR" default:"7"`
	DefaultLanguage       string   `envconfig:"DEFAULT_LANGUAGE" default:"ru"`
	ProviderTimeoutSecs   int      `envconfig:"PROVIDER_TIMEOUT_SECONDS" default:"10"`
	NewsFeedURLs          []string `envconfig:"NEWS_FEED_URLS"`
	NewsScrapeURL         string   `envconfig:"NEWS_SCRAPE_URL"`
	NewsScrapeSelector    string   `envconfig:"NEWS_SCRAPE_SELECTOR" default:"h2 a"`
	HoroscopeAPIBase      string   `envconfig:"HOROSCOPE_API_BASE" default:"https://ohmanda.com/api/horoscope"`
	HoroscopeBackupAPIURL string   `envconfig:"HOROSCOPE_BACKUP_API_URL" default:"https://aztro.sameerkumar.website"`
	LogLevel              string   `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadConfig() (Config, error) {
	// No .env file is fine, the environment itself is authoritative.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process configuration: %w", err)
	}
	if cfg.DefaultNotifyHour < 0 || cfg.DefaultNotifyHour > 23 {
		return Config{}, fmt.Errorf("DEFAULT_NOTIFY_HOUR must be between 0 and 23, got %d", cfg.DefaultNotifyHour)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSecs) * time.Second
}
