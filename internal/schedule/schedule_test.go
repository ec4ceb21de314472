package schedule

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chichivochi/chinazes-weather/internal/storage"
)

type fakeProfiles struct {
	profiles map[int64]*storage.Profile
	listErr  error
}

func (f *fakeProfiles) ListIDs() ([]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]int64, 0, len(f.profiles))
	for id := range f.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeProfiles) Get(chatID int64) (*storage.Profile, error) {
	p, ok := f.profiles[chatID]
	if !ok {
		return nil, errors.New("no such profile")
	}
	return p, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	chats []int64
}

func (n *recordingNotifier) Notify(chatID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chats = append(n.chats, chatID)
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New("UTC", zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestRegisterReplacesExistingJob(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.Register(1, 7); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := s.Register(1, 19); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	if got := len(s.gocron.Jobs()); got != 1 {
		t.Errorf("got %d live jobs after re-register, want 1", got)
	}
	if !s.Scheduled(1) {
		t.Error("chat not reported as scheduled")
	}
}

func TestRegisterKeepsChatsIndependent(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.Register(1, 7); err != nil {
		t.Fatalf("Register(1): %v", err)
	}
	if err := s.Register(2, 9); err != nil {
		t.Fatalf("Register(2): %v", err)
	}
	if err := s.Register(1, 8); err != nil {
		t.Fatalf("re-Register(1): %v", err)
	}

	if got := len(s.gocron.Jobs()); got != 2 {
		t.Errorf("got %d live jobs, want one per chat (2)", got)
	}
}

func TestRegisterRejectsInvalidHour(t *testing.T) {
	s := newTestScheduler(t)

	for _, hour := range []int{-1, 24} {
		if err := s.Register(1, hour); err == nil {
			t.Errorf("Register(1, %d) accepted an invalid hour", hour)
		}
	}
	if s.Scheduled(1) {
		t.Error("invalid registration left a job behind")
	}
}

func TestCancelRemovesJob(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.Register(1, 7); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s.Cancel(1)

	if s.Scheduled(1) {
		t.Error("chat still reported as scheduled after Cancel")
	}
	if got := len(s.gocron.Jobs()); got != 0 {
		t.Errorf("got %d live jobs after Cancel, want 0", got)
	}

	// Cancelling again is a no-op, not an error.
	s.Cancel(1)
}

func TestRehydrateSkipsUnsubscribedAndLocationless(t *testing.T) {
	s := newTestScheduler(t)
	src := &fakeProfiles{profiles: map[int64]*storage.Profile{
		1: {ChatID: 1, NotifyOn: true, NotifyHour: 7, LocationKind: storage.LocationCity, City: "Praha"},
		2: {ChatID: 2, NotifyOn: false, NotifyHour: 8, LocationKind: storage.LocationCity, City: "Brno"},
		3: {ChatID: 3, NotifyOn: true, NotifyHour: 9},
		4: {ChatID: 4, NotifyOn: true, NotifyHour: 10, LocationKind: storage.LocationCoords, Lat: 50, Lon: 14},
	}}

	if err := s.Rehydrate(src); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}

	for id, want := range map[int64]bool{1: true, 2: false, 3: false, 4: true} {
		if got := s.Scheduled(id); got != want {
			t.Errorf("Scheduled(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestRehydrateFailsWhenListingFails(t *testing.T) {
	s := newTestScheduler(t)
	src := &fakeProfiles{listErr: errors.New("db gone")}

	if err := s.Rehydrate(src); err == nil {
		t.Error("Rehydrate swallowed the listing error")
	}
}

func TestFireWithoutNotifierDoesNotPanic(t *testing.T) {
	s := newTestScheduler(t)
	s.fire(1)
}

func TestFireDeliversToNotifier(t *testing.T) {
	s := newTestScheduler(t)
	n := &recordingNotifier{}
	s.SetNotifier(n)

	s.fire(42)

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.chats) != 1 || n.chats[0] != 42 {
		t.Errorf("notifier received %v, want [42]", n.chats)
	}
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	if _, err := New("Mars/Olympus", zap.NewNop()); err == nil {
		t.Error("New accepted an unknown timezone")
	}
}

func TestFireRecoversNotifierPanic(t *testing.T) {
	s := newTestScheduler(t)
	s.SetNotifier(panickyNotifier{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.fire(7)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fire did not return")
	}
}

type panickyNotifier struct{}

func (panickyNotifier) Notify(chatID int64) { panic("boom") }
