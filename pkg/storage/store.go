// Package storage persists operator preferences and spot history in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sotachaser/sotad/pkg/spots"
)

// Preference keys for the allowed tune range, in MHz.
const (
	PrefMinFreqMHz = "sotachaser.min_freq_mhz"
	PrefMaxFreqMHz = "sotachaser.max_freq_mhz"
)

// Defaults applied when no preference has been stored yet.
const (
	DefaultMinFreqMHz = 7.0
	DefaultMaxFreqMHz = 28.0
)

// Store handles persistent storage of preferences and fetched spots.
type Store struct {
	db       *sql.DB
	dbPath   string
	maxSpots int
}

// NewStore creates a store with a SQLite backend.
func NewStore(dbPath string, maxSpots int) (*Store, error) {
	store := &Store{
		dbPath:   dbPath,
		maxSpots: maxSpots,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	return store, nil
}

// initialize sets up the database connection and creates tables
func (s *Store) initialize() error {
	if s.dbPath == "" {
		s.dbPath = "./sotad.db"
	}

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := s.dbPath + "?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db

	if err := s.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("Store initialized: %s (max %d spots)", s.dbPath, s.maxSpots)
	return nil
}

// createTables creates the database schema
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS spots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		spotted_at TEXT NOT NULL,
		callsign TEXT NOT NULL,
		summit TEXT NOT NULL DEFAULT '',
		frequency_mhz REAL NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		comments TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(spotted_at, callsign, frequency_mhz)
	);

	CREATE INDEX IF NOT EXISTS idx_spots_created_at ON spots(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_spots_callsign ON spots(callsign);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetFloat returns a stored numeric preference, or the default when the key
// is absent or unparseable.
func (s *Store) GetFloat(key string, defaultValue float64) float64 {
	var value string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("Failed to read preference %s: %v", key, err)
		}
		return defaultValue
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Malformed preference %s=%q: %v", key, value, err)
		return defaultValue
	}
	return parsed
}

// SetFloat stores a numeric preference.
func (s *Store) SetFloat(key string, value float64) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, strconv.FormatFloat(value, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("failed to store preference %s: %w", key, err)
	}
	return nil
}

// SaveSpots inserts fetched spots, skipping rows already present. Returns the
// number of newly stored spots.
func (s *Store) SaveSpots(list []spots.Spot) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO spots (spotted_at, callsign, summit, frequency_mhz, mode, comments)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, spot := range list {
		result, err := stmt.Exec(spot.Timestamp, spot.Callsign, spot.Summit,
			spot.FrequencyMHz, spot.Mode, spot.Comments)
		if err != nil {
			return 0, fmt.Errorf("failed to insert spot: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit spots: %w", err)
	}

	if s.maxSpots > 0 && inserted > 0 {
		if err := s.cleanup(); err != nil {
			log.Printf("Spot history cleanup failed: %v", err)
		}
	}

	return inserted, nil
}

// RecentSpots returns the most recently stored spots, newest first.
func (s *Store) RecentSpots(limit int) ([]spots.Spot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT spotted_at, callsign, summit, frequency_mhz, mode, comments
		FROM spots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query spots: %w", err)
	}
	defer rows.Close()

	var list []spots.Spot
	for rows.Next() {
		var spot spots.Spot
		if err := rows.Scan(&spot.Timestamp, &spot.Callsign, &spot.Summit,
			&spot.FrequencyMHz, &spot.Mode, &spot.Comments); err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		list = append(list, spot)
	}
	return list, rows.Err()
}

// SpotCount returns the number of stored spots.
func (s *Store) SpotCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM spots").Scan(&count)
	return count, err
}

// cleanup trims the history to maxSpots rows, oldest first.
func (s *Store) cleanup() error {
	_, err := s.db.Exec(`
		DELETE FROM spots WHERE id NOT IN (
			SELECT id FROM spots ORDER BY id DESC LIMIT ?
		)`, s.maxSpots)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
