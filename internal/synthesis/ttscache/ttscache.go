package ttscache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one cached synthesis result.
type Entry struct {
	Key          string
	AudioPath    string
	SubtitlePath string
	CreatedAt    time.Time
}

// Store persists synthesis results keyed by their request parameters, backed
// by SQLite. Last writer wins on concurrent stores; content addressing makes
// collisions semantically safe.
type Store struct {
	db   *sql.DB
	path string
}

// Key derives the deterministic cache key for a synthesis request.
func Key(text, voice, rate, volume, pitch string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{text, voice, rate, volume, pitch}, "|")))
	return hex.EncodeToString(sum[:])
}

// Open initializes or connects to the cache database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "synthesis.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS synthesis_cache (
            key TEXT PRIMARY KEY,
            audio_path TEXT NOT NULL,
            subtitle_path TEXT,
            created_at TEXT NOT NULL
        )`)
	if err != nil {
		return fmt.Errorf("apply cache schema: %w", err)
	}
	return nil
}

// Lookup returns the cached entry for key, or ok=false on a miss. Entries
// whose audio file no longer exists are pruned and reported as misses.
func (s *Store) Lookup(ctx context.Context, key string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, audio_path, COALESCE(subtitle_path, ''), created_at FROM synthesis_cache WHERE key = ?`, key)

	var entry Entry
	var createdAt string
	if err := row.Scan(&entry.Key, &entry.AudioPath, &entry.SubtitlePath, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("lookup cache entry: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = parsed
	}

	if _, err := os.Stat(entry.AudioPath); err != nil {
		if pruneErr := s.Delete(ctx, key); pruneErr != nil {
			return Entry{}, false, pruneErr
		}
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Store records a synthesis result, replacing any previous entry for key.
func (s *Store) Store(ctx context.Context, key, audioPath, subtitlePath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO synthesis_cache (key, audio_path, subtitle_path, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             audio_path = excluded.audio_path,
             subtitle_path = excluded.subtitle_path,
             created_at = excluded.created_at`,
		key, audioPath, nullableString(subtitlePath), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key; missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM synthesis_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synthesis_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
