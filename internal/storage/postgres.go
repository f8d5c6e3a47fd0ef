package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// scoreRow is the gorm model behind PostgresStore.
type scoreRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	GameID      string    `gorm:"not null;index:idx_scores_top,priority:1"`
	Score       int       `gorm:"not null;index:idx_scores_top,priority:2,sort:desc"`
	UserID      string    `gorm:"not null;default:guest"`
	DisplayName string    `gorm:"not null;default:Guest"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (scoreRow) TableName() string { return "scores" }

// PostgresStore keeps score records in a shared Postgres database.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to the database described by dsn and migrates the schema.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("storage: postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: cannot connect to postgres: %w", err)
	}
	return NewPostgresStore(db)
}

// NewPostgresStore wraps an existing gorm handle and migrates the schema.
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&scoreRow{}); err != nil {
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("storage: cannot access connection pool: %w", err)
	}
	return sqlDB.Close()
}

// Save records a new score.
func (s *PostgresStore) Save(ctx context.Context, rec ScoreRecord) (int64, error) {
	rec = rec.WithDefaults()
	row := scoreRow{
		GameID:      rec.GameID,
		Score:       rec.Score,
		UserID:      rec.UserID,
		DisplayName: rec.DisplayName,
		CreatedAt:   rec.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}
	return row.ID, nil
}

// Top retrieves the top N scores for the given game, ordered by score descending.
func (s *PostgresStore) Top(ctx context.Context, gameID string, limit int) ([]ScoreRecord, error) {
	var rows []scoreRow
	err := s.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("score DESC").Order("id ASC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}

	records := make([]ScoreRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, ScoreRecord{
			ID:          r.ID,
			GameID:      r.GameID,
			Score:       r.Score,
			UserID:      r.UserID,
			DisplayName: r.DisplayName,
			CreatedAt:   r.CreatedAt,
		})
	}
	return records, nil
}

// Stats retrieves aggregated statistics for a specific game.
func (s *PostgresStore) Stats(ctx context.Context, gameID string) (*GameStats, error) {
	var agg struct {
		Count      int
		High       int
		Avg        float64
		LastPlayed *time.Time
	}
	err := s.db.WithContext(ctx).Model(&scoreRow{}).
		Select("COUNT(*) AS count, COALESCE(MAX(score), 0) AS high, COALESCE(AVG(score), 0) AS avg, MAX(created_at) AS last_played").
		Where("game_id = ?", gameID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get game stats: %w", err)
	}

	stats := &GameStats{
		GameID:     gameID,
		GamesCount: agg.Count,
		HighScore:  agg.High,
		AvgScore:   agg.Avg,
	}
	if agg.LastPlayed != nil {
		stats.LastPlayed = *agg.LastPlayed
	}
	return stats, nil
}

// Clear deletes all scores for the given game.
func (s *PostgresStore) Clear(ctx context.Context, gameID string) error {
	if err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Delete(&scoreRow{}).Error; err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
