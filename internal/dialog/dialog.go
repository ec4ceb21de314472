// Package dialog drives multi-step settings conversations. One state per
// subscriber, in memory only; a restart simply drops unfinished dialogs.
package dialog

import (
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chichivochi/chinazes-weather/internal/storage"
)

const (
	ModeYesNo    = "awaiting_preference_yesno"
	ModeChoice   = "awaiting_choice"
	ModeFreeText = "awaiting_free_text"
	ModeNumeric  = "awaiting_numeric"
)

// Profile fields a dialog can commit.
const (
	FieldNotifyHour  = "notify_hour"
	FieldCity        = "city"
	FieldSign        = "sign"
	FieldHoroscopeOn = "horoscope_on"
	FieldNewsOn      = "news_on"
)

// State carries exactly the data its mode needs.
type State struct {
	Mode  string
	Field string
	Min   int
	Max   int
}

// Reply names a localization key plus its format arguments; the transport
// layer turns it into text. The engine itself never sees message strings.
type Reply struct {
	Key  string
	Args []any
}

type ProfileStore interface {
	Get(chatID int64) (*storage.Profile, error)
	Put(p *storage.Profile) error
}

type Rescheduler interface {
	Register(chatID int64, hour int) error
	Cancel(chatID int64)
}

type Engine struct {
	mu     sync.Mutex
	states map[int64]*State
	store  ProfileStore
	sched  Rescheduler
	log    *zap.Logger
}

func NewEngine(store ProfileStore, sched Rescheduler, log *zap.Logger) *Engine {
	return &Engine{
		states: make(map[int64]*State),
		store:  store,
		sched:  sched,
		log:    log,
	}
}

// Active reports whether chatID has a dialog in progress.
func (e *Engine) Active(chatID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[chatID] != nil
}

// BeginNumeric starts a bounded numeric dialog and returns its prompt.
func (e *Engine) BeginNumeric(chatID int64, field string, min, max int) Reply {
	e.begin(chatID, &State{Mode: ModeNumeric, Field: field, Min: min, Max: max})
	return Reply{Key: "ask_hour", Args: []any{min, max}}
}

// BeginYesNo starts a boolean preference dialog and returns its prompt.
func (e *Engine) BeginYesNo(chatID int64, field string) Reply {
	e.begin(chatID, &State{Mode: ModeYesNo, Field: field})
	if field == FieldNewsOn {
		return Reply{Key: "ask_news_yesno"}
	}
	return Reply{Key: "ask_horoscope_yesno"}
}

// BeginFreeText starts a free-text dialog (city name) and returns its prompt.
func (e *Engine) BeginFreeText(chatID int64, field string) Reply {
	e.begin(chatID, &State{Mode: ModeFreeText, Field: field})
	return Reply{Key: "ask_city"}
}

func (e *Engine) begin(chatID int64, st *State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states[chatID] = st
}

// Cancel drops any pending dialog. Returns whether one existed.
func (e *Engine) Cancel(chatID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.states[chatID] == nil {
		return false
	}
	delete(e.states, chatID)
	return true
}

// Handle offers an inbound text to the active dialog. The second return is
// false when the subscriber has no dialog in progress, so the caller should
// treat the message as a command instead. Profile mutations for one chat are
// serialized by the engine lock; invalid input re-prompts and commits nothing.
func (e *Engine) Handle(chatID int64, text string) (Reply, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.states[chatID]
	if st == nil {
		return Reply{}, false
	}

	text = strings.TrimSpace(text)
	if isCancelWord(text) {
		delete(e.states, chatID)
		return Reply{Key: "cancelled"}, true
	}

	switch st.Mode {
	case ModeYesNo:
		return e.handleYesNo(chatID, st, text), true
	case ModeChoice:
		return e.handleChoice(chatID, st, text), true
	case ModeNumeric:
		return e.handleNumeric(chatID, st, text), true
	case ModeFreeText:
		return e.handleFreeText(chatID, st, text), true
	default:
		// Unknown mode is a programming error; recover by dropping the dialog.
		e.log.Error("unknown dialog mode", zap.String("mode", st.Mode), zap.Int64("chat_id", chatID))
		delete(e.states, chatID)
		return Reply{Key: "cancelled"}, true
	}
}

func (e *Engine) handleYesNo(chatID int64, st *State, text string) Reply {
	v, ok := parseYesNo(text)
	if !ok {
		return Reply{Key: "invalid_yesno"}
	}

	p, err := e.store.Get(chatID)
	if err != nil {
		return e.storeFailure(chatID, err)
	}
	switch st.Field {
	case FieldHoroscopeOn:
		p.HoroscopeOn = v
	case FieldNewsOn:
		p.NewsOn = v
	}
	if err := e.store.Put(p); err != nil {
		return e.storeFailure(chatID, err)
	}

	// Enabling the horoscope without a known sign continues into the
	// sign-selection step instead of finishing.
	if st.Field == FieldHoroscopeOn && v && p.Sign == "" {
		e.states[chatID] = &State{Mode: ModeChoice, Field: FieldSign}
		return Reply{Key: "ask_sign"}
	}

	delete(e.states, chatID)
	if !v {
		return Reply{Key: "setting_disabled"}
	}
	return Reply{Key: "setting_saved"}
}

func (e *Engine) handleChoice(chatID int64, st *State, text string) Reply {
	sign, ok := NormalizeSign(text)
	if !ok {
		return Reply{Key: "invalid_sign"}
	}

	p, err := e.store.Get(chatID)
	if err != nil {
		return e.storeFailure(chatID, err)
	}
	p.Sign = sign
	if err := e.store.Put(p); err != nil {
		return e.storeFailure(chatID, err)
	}

	delete(e.states, chatID)
	return Reply{Key: "setting_saved"}
}

func (e *Engine) handleNumeric(chatID int64, st *State, text string) Reply {
	n, err := strconv.Atoi(text)
	if err != nil || n < st.Min || n > st.Max {
		return Reply{Key: "invalid_hour", Args: []any{st.Min, st.Max}}
	}

	p, err := e.store.Get(chatID)
	if err != nil {
		return e.storeFailure(chatID, err)
	}
	p.NotifyHour = n
	if err := e.store.Put(p); err != nil {
		return e.storeFailure(chatID, err)
	}
	if p.NotifyOn {
		if err := e.sched.Register(chatID, n); err != nil {
			e.log.Error("reschedule after hour change failed",
				zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}

	delete(e.states, chatID)
	return Reply{Key: "hour_saved", Args: []any{n}}
}

func (e *Engine) handleFreeText(chatID int64, st *State, text string) Reply {
	if text == "" || strings.HasPrefix(text, "/") {
		return Reply{Key: "ask_city"}
	}

	p, err := e.store.Get(chatID)
	if err != nil {
		return e.storeFailure(chatID, err)
	}
	p.SetCity(text)
	p.NotifyOn = true
	if err := e.store.Put(p); err != nil {
		return e.storeFailure(chatID, err)
	}
	if err := e.sched.Register(chatID, p.NotifyHour); err != nil {
		e.log.Error("schedule after city change failed",
			zap.Int64("chat_id", chatID), zap.Error(err))
	}

	delete(e.states, chatID)
	return Reply{Key: "city_saved", Args: []any{p.City, p.NotifyHour}}
}

// storeFailure keeps the dialog alive so the subscriber can retry the turn.
func (e *Engine) storeFailure(chatID int64, err error) Reply {
	e.log.Error("profile store failed during dialog", zap.Int64("chat_id", chatID), zap.Error(err))
	return Reply{Key: "error_generic"}
}

func isCancelWord(text string) bool {
	switch strings.ToLower(text) {
	case "/cancel", "cancel", "отмена":
		return true
	}
	return false
}

func parseYesNo(text string) (value bool, ok bool) {
	switch strings.ToLower(text) {
	case "yes", "y", "да", "д", "ага":
		return true, true
	case "no", "n", "нет", "н", "неа":
		return false, true
	}
	return false, false
}
