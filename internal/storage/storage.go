package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Location kinds. A subscriber has exactly one active kind; setting one
// discards the other's value.
const (
	LocationNone   = ""
	LocationCity   = "city"
	LocationCoords = "coords"
)

type Profile struct {
	ChatID       int64
	LocationKind string
	City         string
	Lat          float64
	Lon          float64
	NotifyHour   int
	Timezone     string
	Language     string
	NotifyOn     bool
	HoroscopeOn  bool
	NewsOn       bool
	Sign         string
}

// SetCity switches the profile to a city location, discarding coordinates.
func (p *Profile) SetCity(name string) {
	p.LocationKind = LocationCity
	p.City = name
	p.Lat, p.Lon = 0, 0
}

// SetCoords switches the profile to a coordinate location, discarding the city.
func (p *Profile) SetCoords(lat, lon float64) {
	p.LocationKind = LocationCoords
	p.Lat, p.Lon = lat, lon
	p.City = ""
}

func (p *Profile) HasLocation() bool {
	return p.LocationKind == LocationCity || p.LocationKind == LocationCoords
}

type Defaults struct {
	NotifyHour int
	Timezone   string
	Language   string
}

type Storage struct {
	db       *sql.DB
	defaults Defaults
	log      *zap.Logger
}

// NewStorage opens the subscriber database, creating the schema if needed.
// An unreadable or corrupt file is moved aside and replaced with a fresh
// database; subscriber data already flushed elsewhere is never merged back.
func NewStorage(dbPath string, defaults Defaults, log *zap.Logger) (*Storage, error) {
	db, err := open(dbPath)
	if err != nil {
		log.Warn("subscriber database unusable, starting fresh",
			zap.String("path", dbPath), zap.Error(err))
		asideErr := os.Rename(dbPath, fmt.Sprintf("%s.corrupt.%d", dbPath, time.Now().Unix()))
		if asideErr != nil && !os.IsNotExist(asideErr) {
			return nil, fmt.Errorf("could not move corrupt database aside: %w", asideErr)
		}
		db, err = open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("could not recreate database: %w", err)
		}
	}
	log.Info("subscriber database ready", zap.String("path", dbPath))
	return &Storage{db: db, defaults: defaults, log: log}, nil
}

func open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	if err = initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize database schema: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS subscribers (
		chat_id INTEGER PRIMARY KEY,
		location_kind TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL DEFAULT 0,
		lon REAL NOT NULL DEFAULT 0,
		notify_hour INTEGER NOT NULL,
		timezone TEXT NOT NULL,
		language TEXT NOT NULL,
		notify_on BOOLEAN NOT NULL DEFAULT FALSE,
		horoscope_on BOOLEAN NOT NULL DEFAULT FALSE,
		news_on BOOLEAN NOT NULL DEFAULT FALSE,
		sign TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("schema execution failed: %w", err)
	}
	return nil
}

// Get returns the stored profile for chatID, or a defaulted one for unknown
// subscribers. The defaulted profile is not persisted until the first Put.
func (s *Storage) Get(chatID int64) (*Profile, error) {
	p := &Profile{
		ChatID:     chatID,
		NotifyHour: s.defaults.NotifyHour,
		Timezone:   s.defaults.Timezone,
		Language:   s.defaults.Language,
	}
	query := `SELECT location_kind, city, lat, lon, notify_hour, timezone, language,
		notify_on, horoscope_on, news_on, sign
		FROM subscribers WHERE chat_id = ?`
	err := s.db.QueryRow(query, chatID).Scan(
		&p.LocationKind, &p.City, &p.Lat, &p.Lon, &p.NotifyHour, &p.Timezone,
		&p.Language, &p.NotifyOn, &p.HoroscopeOn, &p.NewsOn, &p.Sign,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, nil
		}
		return nil, fmt.Errorf("could not load profile for chat %d: %w", chatID, err)
	}
	return p, nil
}

// Put upserts the whole profile row in one statement, so concurrent writers
// for the same chat never interleave partial field sets.
func (s *Storage) Put(p *Profile) error {
	if p.NotifyHour < 0 || p.NotifyHour > 23 {
		return fmt.Errorf("invalid notify hour %d for chat %d", p.NotifyHour, p.ChatID)
	}
	query := `INSERT INTO subscribers (
		chat_id, location_kind, city, lat, lon, notify_hour, timezone, language,
		notify_on, horoscope_on, news_on, sign, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(chat_id) DO UPDATE SET
		location_kind = excluded.location_kind,
		city = excluded.city,
		lat = excluded.lat,
		lon = excluded.lon,
		notify_hour = excluded.notify_hour,
		timezone = excluded.timezone,
		language = excluded.language,
		notify_on = excluded.notify_on,
		horoscope_on = excluded.horoscope_on,
		news_on = excluded.news_on,
		sign = excluded.sign,
		updated_at = CURRENT_TIMESTAMP;`
	_, err := s.db.Exec(query,
		p.ChatID, p.LocationKind, p.City, p.Lat, p.Lon, p.NotifyHour, p.Timezone,
		p.Language, p.NotifyOn, p.HoroscopeOn, p.NewsOn, p.Sign,
	)
	if err != nil {
		return fmt.Errorf("could not save profile for chat %d: %w", p.ChatID, err)
	}
	return nil
}

// ListIDs returns every persisted subscriber id.
func (s *Storage) ListIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT chat_id FROM subscribers`)
	if err != nil {
		return nil, fmt.Errorf("could not list subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Storage) Close() error {
	return s.db.Close()
}
