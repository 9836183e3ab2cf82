// Package store handles SQLite persistence of user preferences.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/verte-zerg/keysprint/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	keyTheme     = "theme"
	keyMode      = "mode"
	keyDuration  = "duration_ms"
	keyWordCount = "word_count"
)

// Store wraps SQLite access for preferences.
type Store struct {
	db *sql.DB
}

// Prefs are the settings remembered between runs. Zero fields are unset.
type Prefs struct {
	Theme     string
	Mode      model.Mode
	Duration  time.Duration
	WordCount int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// LoadPrefs returns the stored preferences. Rows that fail to parse are skipped.
func (s *Store) LoadPrefs(ctx context.Context) (Prefs, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM prefs`)
	if err != nil {
		return Prefs{}, fmt.Errorf("failed to query prefs: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var prefs Prefs
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Prefs{}, fmt.Errorf("failed to scan prefs: %w", err)
		}
		switch key {
		case keyTheme:
			prefs.Theme = value
		case keyMode:
			prefs.Mode = model.Mode(value)
		case keyDuration:
			if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
				prefs.Duration = time.Duration(ms) * time.Millisecond
			}
		case keyWordCount:
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				prefs.WordCount = n
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Prefs{}, fmt.Errorf("failed to read prefs: %w", err)
	}
	return prefs, nil
}

// SavePrefs stores the remembered subset of cfg.
func (s *Store) SavePrefs(ctx context.Context, cfg model.Config) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	values := [][2]string{
		{keyTheme, cfg.Theme},
		{keyMode, string(cfg.Mode)},
		{keyDuration, strconv.FormatInt(cfg.Duration.Milliseconds(), 10)},
		{keyWordCount, strconv.Itoa(cfg.WordCount)},
	}
	for _, kv := range values {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			kv[0], kv[1], now,
		); err != nil {
			return fmt.Errorf("failed to save pref %s: %w", kv[0], err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prefs: %w", err)
	}
	return nil
}

// Apply overlays the set preferences onto cfg.
func (p Prefs) Apply(cfg model.Config) model.Config {
	if p.Theme != "" {
		cfg.Theme = p.Theme
	}
	if p.Mode != "" {
		cfg.Mode = p.Mode
	}
	if p.Duration > 0 {
		cfg.Duration = p.Duration
	}
	if p.WordCount > 0 {
		cfg.WordCount = p.WordCount
	}
	return cfg
}
