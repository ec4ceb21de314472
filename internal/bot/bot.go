package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/chichivochi/chinazes-weather/config"
	"github.com/chichivochi/chinazes-weather/internal/compose"
	"github.com/chichivochi/chinazes-weather/internal/content"
	"github.com/chichivochi/chinazes-weather/internal/dialog"
	"github.com/chichivochi/chinazes-weather/internal/localization"
	"github.com/chichivochi/chinazes-weather/internal/schedule"
	"github.com/chichivochi/chinazes-weather/internal/storage"
)

const sendTimeout = 30 * time.Second

type WeatherBot struct {
	api       *tgbotapi.BotAPI
	cfg       config.Config
	log       *zap.Logger
	localizer *localization.Localizer
	store     *storage.Storage
	sched     *schedule.Scheduler
	composer  *compose.Composer
	engine    *dialog.Engine

	// digest serves the scheduled morning push (forecast-first weather),
	// onDemand serves /weather and /now (current conditions first).
	digest   *content.Aggregator
	onDemand *content.Aggregator

	// Telegram allows around 30 messages a second bot-wide.
	limiter *rate.Limiter
}

func NewBot(
	cfg config.Config,
	log *zap.Logger,
	localizer *localization.Localizer,
	store *storage.Storage,
	sched *schedule.Scheduler,
	digest *content.Aggregator,
	onDemand *content.Aggregator,
	composer *compose.Composer,
) (*WeatherBot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("could not connect to telegram: %w", err)
	}
	api.Debug = false

	return &WeatherBot{
		api:       api,
		cfg:       cfg,
		log:       log,
		localizer: localizer,
		store:     store,
		sched:     sched,
		composer:  composer,
		engine:    dialog.NewEngine(store, sched, log),
		digest:    digest,
		onDemand:  onDemand,
		limiter:   rate.NewLimiter(rate.Limit(25), 5),
	}, nil
}

func (b *WeatherBot) Start(ctx context.Context) {
	b.log.Info("authorized on telegram", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("update loop stopped")
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *WeatherBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil {
		return
	}
	chatID := message.Chat.ID

	profile, err := b.store.Get(chatID)
	if err != nil {
		b.log.Error("could not load profile", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	if message.Location != nil {
		b.handleLocationMessage(chatID, profile, message.Location)
		return
	}

	// An active dialog gets first claim on every inbound text; only idle
	// subscribers have their messages interpreted as commands.
	if reply, handled := b.engine.Handle(chatID, message.Text); handled {
		b.reply(ctx, chatID, profile.Language, reply)
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message, profile)
	}
}

// Notify is the scheduler callback: build and deliver one subscriber's
// morning digest. Every failure is contained here so one subscriber can
// never break another's schedule.
func (b *WeatherBot) Notify(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	profile, err := b.store.Get(chatID)
	if err != nil {
		b.log.Error("notification skipped, could not load profile",
			zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	if !profile.NotifyOn || !profile.HasLocation() {
		// The job outlived the subscription; drop it.
		b.log.Warn("cancelling stale notification job", zap.Int64("chat_id", chatID))
		b.sched.Cancel(chatID)
		return
	}

	text := b.buildDigest(ctx, profile, b.digest)
	if text == "" {
		b.log.Warn("empty digest, nothing to send", zap.Int64("chat_id", chatID))
		return
	}
	if err := b.send(ctx, chatID, text); err != nil {
		b.log.Error("notification delivery failed",
			zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	b.log.Info("notification delivered", zap.Int64("chat_id", chatID))
}

func (b *WeatherBot) buildDigest(ctx context.Context, p *storage.Profile, agg *content.Aggregator) string {
	params := content.Params{
		LocationKind: p.LocationKind,
		City:         p.City,
		Lat:          p.Lat,
		Lon:          p.Lon,
		Sign:         p.Sign,
		Lang:         p.Language,
		Timezone:     p.Timezone,
	}
	kinds := []content.Kind{content.KindWeather}
	if p.HoroscopeOn {
		kinds = append(kinds, content.KindHoroscope)
	}
	if p.NewsOn {
		kinds = append(kinds, content.KindNews)
	}
	results := agg.Fetch(ctx, params, kinds...)
	return b.composer.Notification(p.Language, results)
}

func (b *WeatherBot) reply(ctx context.Context, chatID int64, lang string, r dialog.Reply) {
	text := b.localizer.GetMessage(lang, r.Key)
	if len(r.Args) > 0 {
		text = fmt.Sprintf(text, r.Args...)
	}
	if err := b.send(ctx, chatID, text); err != nil {
		b.log.Error("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *WeatherBot) sendText(ctx context.Context, chatID int64, lang, key string, args ...any) {
	b.reply(ctx, chatID, lang, dialog.Reply{Key: key, Args: args})
}

func (b *WeatherBot) send(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", chatID, err)
	}
	return nil
}
