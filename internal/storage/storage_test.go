package storage

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

var testDefaults = Defaults{NotifyHour: 7, Timezone: "Europe/Prague", Language: "ru"}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"), testDefaults, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUnknownReturnsDefaults(t *testing.T) {
	s := newTestStorage(t)

	p, err := s.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", p.ChatID)
	}
	if p.NotifyHour != 7 || p.Timezone != "Europe/Prague" || p.Language != "ru" {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.HasLocation() || p.NotifyOn {
		t.Errorf("fresh profile should be unsubscribed without location: %+v", p)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	want := &Profile{
		ChatID:      100,
		NotifyHour:  9,
		Timezone:    "Europe/Prague",
		Language:    "en",
		NotifyOn:    true,
		HoroscopeOn: true,
		NewsOn:      true,
		Sign:        "leo",
	}
	want.SetCity("Praha")

	if err := s.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestPutIsUpsert(t *testing.T) {
	s := newTestStorage(t)

	p, _ := s.Get(7)
	p.SetCity("Praha")
	p.NotifyOn = true
	if err := s.Put(p); err != nil {
		t.Fatalf("first Put: %v", err)
	}

	p.NotifyHour = 21
	if err := s.Put(p); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, _ := s.Get(7)
	if got.NotifyHour != 21 || got.City != "Praha" {
		t.Errorf("upsert lost fields: %+v", got)
	}

	ids, err := s.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("ListIDs = %v, want [7]", ids)
	}
}

func TestPutRejectsInvalidHour(t *testing.T) {
	s := newTestStorage(t)

	p, _ := s.Get(1)
	p.NotifyHour = 24
	if err := s.Put(p); err == nil {
		t.Error("Put accepted hour 24")
	}
}

func TestLocationKindSwitchDiscardsOtherVariant(t *testing.T) {
	s := newTestStorage(t)

	p, _ := s.Get(5)
	p.SetCity("Praha")
	p.NotifyOn = true
	if err := s.Put(p); err != nil {
		t.Fatalf("Put city: %v", err)
	}

	p.SetCoords(50.08, 14.43)
	if err := s.Put(p); err != nil {
		t.Fatalf("Put coords: %v", err)
	}

	got, _ := s.Get(5)
	if got.LocationKind != LocationCoords {
		t.Fatalf("LocationKind = %q, want %q", got.LocationKind, LocationCoords)
	}
	if got.City != "" {
		t.Errorf("city not discarded on switch to coordinates: %q", got.City)
	}

	got.SetCity("Brno")
	if err := s.Put(got); err != nil {
		t.Fatalf("Put city again: %v", err)
	}
	got, _ = s.Get(5)
	if got.Lat != 0 || got.Lon != 0 {
		t.Errorf("coordinates not discarded on switch to city: %+v", got)
	}
}

func TestCorruptDatabaseStartsFresh(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	if err := os.WriteFile(dbPath, []byte("definitely not a sqlite file"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStorage(dbPath, testDefaults, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStorage on corrupt file: %v", err)
	}
	defer s.Close()

	ids, err := s.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("fresh store should be empty, got ids %v", ids)
	}

	aside, err := filepath.Glob(dbPath + ".corrupt.*")
	if err != nil {
		t.Fatal(err)
	}
	if len(aside) != 1 {
		t.Errorf("corrupt file not moved aside, glob = %v", aside)
	}
}
