package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/chichivochi/chinazes-weather/internal/content"
	"github.com/chichivochi/chinazes-weather/internal/dialog"
	"github.com/chichivochi/chinazes-weather/internal/storage"
)

func (b *WeatherBot) handleCommand(ctx context.Context, message *tgbotapi.Message, profile *storage.Profile) {
	chatID := message.Chat.ID
	lang := profile.Language
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.sendText(ctx, chatID, lang, "welcome_message")
	case "help":
		b.sendText(ctx, chatID, lang, "help_message")
	case "weather":
		b.handleWeatherCommand(ctx, chatID, profile, args)
	case "now":
		b.handleNowCommand(ctx, chatID, profile)
	case "setcity":
		b.handleSetCityCommand(ctx, chatID, profile, args)
	case "settime":
		b.reply(ctx, chatID, lang, b.engine.BeginNumeric(chatID, dialog.FieldNotifyHour, 0, 23))
	case "horoscope":
		b.reply(ctx, chatID, lang, b.engine.BeginYesNo(chatID, dialog.FieldHoroscopeOn))
	case "news":
		b.reply(ctx, chatID, lang, b.engine.BeginYesNo(chatID, dialog.FieldNewsOn))
	case "stop":
		b.handleStopCommand(ctx, chatID, profile)
	case "cancel":
		if b.engine.Cancel(chatID) {
			b.sendText(ctx, chatID, lang, "cancelled")
		} else {
			b.sendText(ctx, chatID, lang, "nothing_to_cancel")
		}
	}
}

// handleWeatherCommand answers /weather <city> with current conditions for
// an arbitrary city, without touching the stored profile.
func (b *WeatherBot) handleWeatherCommand(ctx context.Context, chatID int64, profile *storage.Profile, args string) {
	if args == "" {
		b.sendText(ctx, chatID, profile.Language, "weather_usage")
		return
	}
	params := content.Params{
		LocationKind: content.LocationCity,
		City:         args,
		Lang:         profile.Language,
		Timezone:     profile.Timezone,
	}
	results := b.onDemand.Fetch(ctx, params, content.KindWeather)
	text := b.composer.Notification(profile.Language, results)
	if err := b.send(ctx, chatID, text); err != nil {
		b.log.Error("failed to send weather report", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleNowCommand sends the full digest for the stored location on demand,
// with current conditions instead of the noon forecast.
func (b *WeatherBot) handleNowCommand(ctx context.Context, chatID int64, profile *storage.Profile) {
	if !profile.HasLocation() {
		b.sendText(ctx, chatID, profile.Language, "need_city")
		return
	}
	text := b.buildDigest(ctx, profile, b.onDemand)
	if err := b.send(ctx, chatID, text); err != nil {
		b.log.Error("failed to send digest", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *WeatherBot) handleSetCityCommand(ctx context.Context, chatID int64, profile *storage.Profile, args string) {
	lang := profile.Language
	if args == "" {
		b.reply(ctx, chatID, lang, b.engine.BeginFreeText(chatID, dialog.FieldCity))
		return
	}

	profile.SetCity(args)
	profile.NotifyOn = true
	if err := b.store.Put(profile); err != nil {
		b.log.Error("could not save city", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(ctx, chatID, lang, "error_generic")
		return
	}
	if err := b.sched.Register(chatID, profile.NotifyHour); err != nil {
		b.log.Error("could not schedule after setcity", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.sendText(ctx, chatID, lang, "city_saved", profile.City, profile.NotifyHour)
}

func (b *WeatherBot) handleLocationMessage(chatID int64, profile *storage.Profile, loc *tgbotapi.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	lang := profile.Language

	profile.SetCoords(loc.Latitude, loc.Longitude)
	profile.NotifyOn = true
	if err := b.store.Put(profile); err != nil {
		b.log.Error("could not save coordinates", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(ctx, chatID, lang, "error_generic")
		return
	}
	if err := b.sched.Register(chatID, profile.NotifyHour); err != nil {
		b.log.Error("could not schedule after location", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.sendText(ctx, chatID, lang, "location_saved", profile.Lat, profile.Lon, profile.NotifyHour)
}

func (b *WeatherBot) handleStopCommand(ctx context.Context, chatID int64, profile *storage.Profile) {
	profile.NotifyOn = false
	if err := b.store.Put(profile); err != nil {
		b.log.Error("could not save unsubscribe", zap.Int64("chat_id", chatID), zap.Error(err))
		b.sendText(ctx, chatID, profile.Language, "error_generic")
		return
	}
	b.sched.Cancel(chatID)
	b.sendText(ctx, chatID, profile.Language, "stop_done")
}
