// Package scores answers high-score queries and stores submissions. The
// store is authoritative; a local JSON cache covers store outages and empty
// tables, and live subscribers receive fresh top-N lists after every write.
package scores

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/storage"
)

// Service combines a score store with the local cache.
type Service struct {
	store storage.Store
	cache *LocalCache
	log   *log.Logger
	hub   *hub
}

// NewService creates a service. store may be nil for cache-only operation.
func NewService(store storage.Store, cache *LocalCache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store: store,
		cache: cache,
		log:   logger.WithPrefix("scores"),
		hub:   newHub(),
	}
}

// HighScore returns the best stored score for gameID. It falls back to the
// local cache when the store errors or has no rows.
func (s *Service) HighScore(ctx context.Context, gameID string) (int, error) {
	if s.store != nil {
		top, err := s.store.Top(ctx, gameID, 1)
		switch {
		case err != nil:
			s.log.Warn("store unavailable, using local cache", "game", gameID, "err", err)
		case len(top) > 0:
			return top[0].Score, nil
		}
	}
	if s.cache != nil {
		return s.cache.Get(gameID), nil
	}
	return 0, nil
}

// Submit stores a guest score. It implements the relay's score sink.
func (s *Service) Submit(ctx context.Context, gameID string, score int) error {
	_, err := s.SubmitRecord(ctx, storage.ScoreRecord{GameID: gameID, Score: score})
	return err
}

// SubmitRecord stores rec after filling guest defaults. Scores for
// non-competitive games are ignored and return ID 0.
func (s *Service) SubmitRecord(ctx context.Context, rec storage.ScoreRecord) (int64, error) {
	if rec.GameID == "" {
		return 0, fmt.Errorf("scores: submit: missing game id")
	}
	if !registry.IsCompetitive(rec.GameID) {
		s.log.Debug("ignoring score for non-competitive game", "game", rec.GameID)
		return 0, nil
	}
	rec = rec.WithDefaults()

	if s.cache != nil {
		if _, err := s.cache.Raise(rec.GameID, rec.Score); err != nil {
			s.log.Warn("local cache update failed", "err", err)
		}
	}
	if s.store == nil {
		return 0, nil
	}

	id, err := s.store.Save(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("scores: submit %s: %w", rec.GameID, err)
	}
	s.publish(ctx, rec.GameID)
	return id, nil
}

// Top returns up to limit records for gameID, best first.
func (s *Service) Top(ctx context.Context, gameID string, limit int) ([]storage.ScoreRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	top, err := s.store.Top(ctx, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("scores: top %s: %w", gameID, err)
	}
	return top, nil
}

// Stats aggregates stored records for gameID.
func (s *Service) Stats(ctx context.Context, gameID string) (*storage.GameStats, error) {
	if s.store == nil {
		return &storage.GameStats{GameID: gameID, HighScore: s.cache.Get(gameID)}, nil
	}
	return s.store.Stats(ctx, gameID)
}

// Clear deletes every stored record for gameID and notifies subscribers.
func (s *Service) Clear(ctx context.Context, gameID string) error {
	if s.store == nil {
		return fmt.Errorf("scores: clear %s: no store configured", gameID)
	}
	if err := s.store.Clear(ctx, gameID); err != nil {
		return fmt.Errorf("scores: clear %s: %w", gameID, err)
	}
	s.publish(ctx, gameID)
	return nil
}

// Subscribe returns a channel that receives the top-limit list for gameID
// after every stored submission, and a cancel func that closes it. Slow
// readers only see the latest list.
func (s *Service) Subscribe(gameID string, limit int) (<-chan []storage.ScoreRecord, func()) {
	if limit <= 0 {
		limit = storage.DefaultLimit
	}
	sub, cancel := s.hub.add(gameID, limit)
	return sub.ch, cancel
}

func (s *Service) publish(ctx context.Context, gameID string) {
	for _, sub := range s.hub.watched(gameID) {
		top, err := s.store.Top(ctx, gameID, sub.limit)
		if err != nil {
			s.log.Warn("live update failed", "game", gameID, "err", err)
			continue
		}
		s.hub.deliver(gameID, sub, top)
	}
}
