package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chichivochi/chinazes-weather/config"
	"github.com/chichivochi/chinazes-weather/internal/bot"
	"github.com/chichivochi/chinazes-weather/internal/compose"
	"github.com/chichivochi/chinazes-weather/internal/content"
	"github.com/chichivochi/chinazes-weather/internal/localization"
	"github.com/chichivochi/chinazes-weather/internal/logger"
	"github.com/chichivochi/chinazes-weather/internal/schedule"
	"github.com/chichivochi/chinazes-weather/internal/storage"
)

//go:embed locales
var localeFiles embed.FS

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting weather bot", zap.String("timezone", cfg.Timezone))

	localizer, err := localization.NewLocalizer(localeFiles)
	if err != nil {
		log.Fatal("failed to load locales", zap.Error(err))
	}

	store, err := storage.NewStorage(cfg.DatabasePath, storage.Defaults{
		NotifyHour: cfg.DefaultNotifyHour,
		Timezone:   cfg.Timezone,
		Language:   cfg.DefaultLanguage,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	sched, err := schedule.New(cfg.Timezone, log)
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}

	digestWeather, onDemandWeather := weatherChains(cfg)
	horoscope := horoscopeChain(cfg)
	news := newsChain(cfg)

	digest := content.NewAggregator(log, digestWeather, horoscope, news)
	onDemand := content.NewAggregator(log, onDemandWeather, horoscope, news)
	composer := compose.New(localizer)

	weatherBot, err := bot.NewBot(cfg, log, localizer, store, sched, digest, onDemand, composer)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	sched.SetNotifier(weatherBot)
	sched.Start()
	if err := sched.Rehydrate(store); err != nil {
		log.Error("schedule rehydration incomplete", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	weatherBot.Start(ctx)

	if err := sched.Stop(); err != nil {
		log.Error("scheduler shutdown failed", zap.Error(err))
	}
	log.Info("weather bot stopped")
}

func weatherChains(cfg config.Config) (digest, onDemand *content.Chain) {
	timeout := cfg.ProviderTimeout()
	forecast := content.NewOWMForecast(cfg.OpenWeatherAPIKey)
	current := content.NewOWMCurrent(cfg.OpenWeatherAPIKey)
	meteo := content.NewOpenMeteo()

	digest = &content.Chain{
		Kind:      content.KindWeather,
		Timeout:   timeout,
		Providers: []content.Provider{forecast, current, meteo},
	}
	onDemand = &content.Chain{
		Kind:      content.KindWeather,
		Timeout:   timeout,
		Providers: []content.Provider{current, meteo},
	}
	return digest, onDemand
}

func horoscopeChain(cfg config.Config) *content.Chain {
	return &content.Chain{
		Kind:    content.KindHoroscope,
		Timeout: cfg.ProviderTimeout(),
		Providers: []content.Provider{
			content.NewOhmanda(cfg.HoroscopeAPIBase),
			content.NewAztro(cfg.HoroscopeBackupAPIURL),
		},
	}
}

func newsChain(cfg config.Config) *content.Chain {
	var providers []content.Provider
	for _, feedURL := range cfg.NewsFeedURLs {
		providers = append(providers, content.NewRSSFeed(feedURL))
	}
	if cfg.NewsScrapeURL != "" {
		providers = append(providers, content.NewHeadlineScrape(cfg.NewsScrapeURL, cfg.NewsScrapeSelector))
	}
	return &content.Chain{
		Kind:      content.KindNews,
		Timeout:   cfg.ProviderTimeout(),
		Providers: providers,
	}
}
