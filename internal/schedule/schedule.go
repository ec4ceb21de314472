// Package schedule owns one recurring daily job per subscriber. Jobs are
// derived state: they are rebuilt from stored profiles on startup rather
// than persisted themselves.
package schedule

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/chichivochi/chinazes-weather/internal/storage"
)

// Notifier delivers the composed notification for one subscriber. The bot
// implements it; failures must be handled inside Notify.
type Notifier interface {
	Notify(chatID int64)
}

type ProfileSource interface {
	ListIDs() ([]int64, error)
	Get(chatID int64) (*storage.Profile, error)
}

type Scheduler struct {
	gocron gocron.Scheduler
	log    *zap.Logger

	mu       sync.Mutex
	jobs     map[int64]gocron.Job
	notifier Notifier
}

func New(timezone string, log *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", timezone, err)
	}
	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(&gocronZapLogger{log.Sugar()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{gocron: s, log: log, jobs: make(map[int64]gocron.Job)}, nil
}

// SetNotifier must be called before Start; split from New because the bot
// and the scheduler reference each other.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

func (s *Scheduler) Start() {
	s.gocron.Start()
	s.log.Info("scheduler started")
}

func (s *Scheduler) Stop() error {
	if err := s.gocron.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// Register installs the subscriber's daily job at hour:00 local time,
// replacing any existing job in the same step. Removal goes by tag, so even
// a stray duplicate handle for the chat is cleared before the new one lands.
func (s *Scheduler) Register(chatID int64, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("invalid notify hour %d for chat %d", hour, chatID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag := chatTag(chatID)
	s.gocron.RemoveByTags(tag)
	delete(s.jobs, chatID)

	job, err := s.gocron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0))),
		gocron.NewTask(s.fire, chatID),
		gocron.WithTags(tag),
	)
	if err != nil {
		return fmt.Errorf("could not schedule daily job for chat %d: %w", chatID, err)
	}
	s.jobs[chatID] = job

	s.log.Info("daily notification scheduled",
		zap.Int64("chat_id", chatID), zap.Int("hour", hour))
	return nil
}

// Cancel removes the subscriber's job, if any.
func (s *Scheduler) Cancel(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gocron.RemoveByTags(chatTag(chatID))
	if _, ok := s.jobs[chatID]; ok {
		delete(s.jobs, chatID)
		s.log.Info("daily notification cancelled", zap.Int64("chat_id", chatID))
	}
}

// Scheduled reports whether the subscriber currently has a live job.
func (s *Scheduler) Scheduled(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[chatID]
	return ok
}

// Rehydrate re-registers every persisted subscriber after a restart.
func (s *Scheduler) Rehydrate(src ProfileSource) error {
	ids, err := src.ListIDs()
	if err != nil {
		return fmt.Errorf("could not list subscribers for rehydration: %w", err)
	}

	registered := 0
	for _, id := range ids {
		p, err := src.Get(id)
		if err != nil {
			s.log.Error("skipping subscriber during rehydration", zap.Int64("chat_id", id), zap.Error(err))
			continue
		}
		if !p.NotifyOn || !p.HasLocation() {
			continue
		}
		if err := s.Register(id, p.NotifyHour); err != nil {
			s.log.Error("failed to rehydrate schedule", zap.Int64("chat_id", id), zap.Error(err))
			continue
		}
		registered++
	}

	s.log.Info("schedules rehydrated",
		zap.Int("subscribers", len(ids)), zap.Int("jobs", registered))
	return nil
}

func (s *Scheduler) fire(chatID int64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in notification job",
				zap.Int64("chat_id", chatID), zap.Any("panic", r))
		}
	}()

	s.mu.Lock()
	n := s.notifier
	s.mu.Unlock()
	if n == nil {
		s.log.Warn("job fired with no notifier bound", zap.Int64("chat_id", chatID))
		return
	}
	n.Notify(chatID)
}

func chatTag(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}

type gocronZapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *gocronZapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *gocronZapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *gocronZapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *gocronZapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
