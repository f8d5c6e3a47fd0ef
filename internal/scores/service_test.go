package scores

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/storage"
)

func init() {
	registry.Register(registry.Entry{ID: "scores-test-chess", Source: "chess/main.gos", Competitive: false})
}

func newTestService(t *testing.T, cacheJSON string) (*Service, storage.Store, *LocalCache) {
	t.Helper()
	dir := t.TempDir()

	cachePath := filepath.Join(dir, "local_scores.json")
	if cacheJSON != "" {
		if err := os.WriteFile(cachePath, []byte(cacheJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cache, err := OpenCache(cachePath)
	if err != nil {
		t.Fatalf("OpenCache() failed: %v", err)
	}

	store, err := storage.OpenSQLite(filepath.Join(dir, "scores.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewService(store, cache, nil), store, cache
}

func TestHighScoreFallsBackToLocalCache(t *testing.T) {
	svc, _, _ := newTestService(t, `{"snake": 120}`)

	got, err := svc.HighScore(context.Background(), "snake")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if got != 120 {
		t.Errorf("HighScore() = %d, expected 120 from the local cache", got)
	}
}

func TestHighScorePrefersStore(t *testing.T) {
	svc, store, _ := newTestService(t, `{"snake": 120}`)
	ctx := context.Background()

	if _, err := store.Save(ctx, storage.ScoreRecord{GameID: "snake", Score: 500}); err != nil {
		t.Fatal(err)
	}
	got, err := svc.HighScore(ctx, "snake")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if got != 500 {
		t.Errorf("HighScore() = %d, expected 500 from the store", got)
	}
}

func TestHighScoreStoreError(t *testing.T) {
	svc, store, _ := newTestService(t, `{"snake": 75}`)
	store.Close()

	got, err := svc.HighScore(context.Background(), "snake")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if got != 75 {
		t.Errorf("HighScore() = %d, expected cached 75 after store error", got)
	}
}

func TestSubmitUpdatesStoreAndCache(t *testing.T) {
	svc, store, cache := newTestService(t, "")
	ctx := context.Background()

	if err := svc.Submit(ctx, "snake", 40); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if err := svc.Submit(ctx, "snake", 30); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	if got := cache.Get("snake"); got != 40 {
		t.Errorf("cache = %d, expected 40 (lower score must not replace it)", got)
	}

	top, err := store.Top(ctx, "snake", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("stored %d records, expected 2", len(top))
	}
	if top[0].UserID != storage.GuestUserID || top[0].DisplayName != storage.GuestName {
		t.Errorf("guest defaults not applied: %+v", top[0])
	}

	reopened, err := OpenCache(cache.Path())
	if err != nil {
		t.Fatalf("OpenCache() failed: %v", err)
	}
	if got := reopened.Get("snake"); got != 40 {
		t.Errorf("persisted cache = %d, expected 40", got)
	}
}

func TestSubmitNonCompetitive(t *testing.T) {
	svc, store, cache := newTestService(t, "")
	ctx := context.Background()

	id, err := svc.SubmitRecord(ctx, storage.ScoreRecord{GameID: "scores-test-chess", Score: 250})
	if err != nil {
		t.Fatalf("SubmitRecord() failed: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, expected 0", id)
	}
	top, _ := store.Top(ctx, "scores-test-chess", 10)
	if len(top) != 0 {
		t.Errorf("stored %d records for a non-competitive game", len(top))
	}
	if cache.Get("scores-test-chess") != 0 {
		t.Error("cache updated for a non-competitive game")
	}
}

func TestSubmitRequiresGame(t *testing.T) {
	svc, _, _ := newTestService(t, "")
	if _, err := svc.SubmitRecord(context.Background(), storage.ScoreRecord{Score: 1}); err == nil {
		t.Error("expected error for missing game id")
	}
}

func TestCacheOnlyService(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "nested", "cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(nil, cache, nil)
	ctx := context.Background()

	if err := svc.Submit(ctx, "breakout", 90); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	got, _ := svc.HighScore(ctx, "breakout")
	if got != 90 {
		t.Errorf("HighScore() = %d, expected 90", got)
	}
	top, err := svc.Top(ctx, "breakout", 5)
	if err != nil || top != nil {
		t.Errorf("Top() = %v, %v; expected nil, nil", top, err)
	}
}

func TestOpenCacheInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenCache(path); err == nil {
		t.Error("expected error for invalid cache file")
	}
}

func TestSubscribe(t *testing.T) {
	svc, _, _ := newTestService(t, "")
	ctx := context.Background()

	ch, cancel := svc.Subscribe("snake", 2)
	defer cancel()
	other, cancelOther := svc.Subscribe("breakout", 2)
	defer cancelOther()

	for _, score := range []int{10, 30, 20} {
		if err := svc.Submit(ctx, "snake", score); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case top := <-ch:
		if len(top) != 2 || top[0].Score != 30 || top[1].Score != 20 {
			t.Errorf("latest snapshot = %+v, expected scores 30, 20", top)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	select {
	case top := <-other:
		t.Errorf("breakout subscriber got %+v", top)
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	cancel()
}

func TestClear(t *testing.T) {
	svc, _, _ := newTestService(t, "")
	ctx := context.Background()

	if err := svc.Submit(ctx, "snake", 40); err != nil {
		t.Fatal(err)
	}
	if err := svc.Clear(ctx, "snake"); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	top, err := svc.Top(ctx, "snake", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 0 {
		t.Errorf("Top() after Clear = %d records, expected none", len(top))
	}

	cacheOnly := NewService(nil, nil, nil)
	if err := cacheOnly.Clear(ctx, "snake"); err == nil {
		t.Error("Clear() without a store should fail")
	}
}
