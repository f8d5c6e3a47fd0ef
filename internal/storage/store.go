// Package storage provides persistence for game score records.
// SQLite (pure-Go modernc.org/sqlite driver) is the default backend;
// Postgres through gorm serves shared deployments.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Guest defaults applied to anonymous submissions.
const (
	GuestUserID = "guest"
	GuestName   = "Guest"
)

// DefaultLimit is the top-N size used when a caller passes a non-positive limit.
const DefaultLimit = 10

// ScoreRecord is a single submitted score. Records are immutable once written.
type ScoreRecord struct {
	ID          int64     `json:"id"`
	GameID      string    `json:"gameId"`
	Score       int       `json:"score"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"username"`
	CreatedAt   time.Time `json:"timestamp"`
}

// WithDefaults fills guest identity and timestamp where missing.
func (r ScoreRecord) WithDefaults() ScoreRecord {
	if r.UserID == "" {
		r.UserID = GuestUserID
	}
	if r.DisplayName == "" {
		r.DisplayName = GuestName
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return r
}

// GameStats contains aggregated statistics for a game.
type GameStats struct {
	GameID     string
	GamesCount int
	HighScore  int
	AvgScore   float64
	LastPlayed time.Time
}

// Store is the score store contract shared by every backend.
type Store interface {
	// Save appends a record and returns its ID.
	Save(ctx context.Context, rec ScoreRecord) (int64, error)
	// Top returns up to limit records for gameID, best first.
	Top(ctx context.Context, gameID string, limit int) ([]ScoreRecord, error)
	// Stats aggregates all records for gameID.
	Stats(ctx context.Context, gameID string) (*GameStats, error)
	// Clear deletes all records for gameID.
	Clear(ctx context.Context, gameID string) error
	Close() error
}

// Open creates a store for the given driver.
// driver is "sqlite" (target is a file path) or "postgres" (target is a DSN).
func Open(driver, target string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(target)
	case "postgres", "postgresql":
		return OpenPostgres(target)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
