package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeChild struct {
	id   string
	mu   sync.Mutex
	sent []Message
}

func (c *fakeChild) ID() string { return c.id }

func (c *fakeChild) Send(m Message) {
	c.mu.Lock()
	c.sent = append(c.sent, m)
	c.mu.Unlock()
}

func (c *fakeChild) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

func (c *fakeChild) highScores() []int {
	var out []int
	for _, m := range c.messages() {
		if hs, ok := m.(HighScore); ok {
			out = append(out, hs.Score)
		}
	}
	return out
}

type fakeScores struct {
	mu        sync.Mutex
	high      int
	err       error
	submitted []int
}

func (s *fakeScores) Submit(_ context.Context, _ string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, score)
	return nil
}

func (s *fakeScores) HighScore(context.Context, string) (int, error) {
	return s.high, s.err
}

type fakeSounds struct{ played []string }

func (s *fakeSounds) Play(name string) { s.played = append(s.played, name) }

func TestReadyPushesHighScoreOncePerReady(t *testing.T) {
	ctx := context.Background()
	r := New(Config{GameID: "snake", Competitive: true})
	child := &fakeChild{id: "c1"}
	r.Attach(child)
	r.SetHighScore(120)

	if got := child.highScores(); len(got) != 0 {
		t.Fatalf("pushed before ready: %v", got)
	}

	r.Deliver(ctx, "c1", Ready{})
	r.Deliver(ctx, "c1", GameOver{Score: 10})
	r.Deliver(ctx, "c1", Ready{})

	got := child.highScores()
	if len(got) != 2 || got[0] != 120 || got[1] != 120 {
		t.Errorf("high score pushes = %v, expected [120 120]", got)
	}
}

func TestLateFetchPushedAfterReady(t *testing.T) {
	ctx := context.Background()
	scores := &fakeScores{high: 500}
	r := New(Config{GameID: "snake", Competitive: true, Scores: scores})
	child := &fakeChild{id: "c1"}
	r.Attach(child)

	r.Deliver(ctx, "c1", Ready{})
	r.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.HighScore() == 500 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := child.highScores()
	if len(got) != 2 || got[0] != 0 || got[1] != 500 {
		t.Errorf("high score pushes = %v, expected [0 500]", got)
	}
}

func TestFetchErrorKeepsRetained(t *testing.T) {
	scores := &fakeScores{err: errors.New("offline")}
	r := New(Config{GameID: "snake", Scores: scores})
	r.SetHighScore(42)
	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	if got := r.HighScore(); got != 42 {
		t.Errorf("HighScore() = %d, expected 42", got)
	}
}

func TestForeignSourceDropped(t *testing.T) {
	var notified []Message
	r := New(Config{GameID: "snake", Notify: func(m Message) { notified = append(notified, m) }})
	child := &fakeChild{id: "c1"}
	r.Attach(child)

	r.Deliver(context.Background(), "intruder", Ready{})

	if len(notified) != 0 {
		t.Errorf("foreign message was accepted: %v", notified)
	}
	if len(child.messages()) != 0 {
		t.Error("foreign ready triggered a push")
	}
}

func TestHostMessagesFromChildDropped(t *testing.T) {
	var notified []Message
	r := New(Config{GameID: "snake", Notify: func(m Message) { notified = append(notified, m) }})
	r.Attach(&fakeChild{id: "c1"})

	r.Deliver(context.Background(), "c1", HighScore{Score: 9999})
	if len(notified) != 0 || r.HighScore() != 0 {
		t.Error("child must not be able to set the high score")
	}
}

func TestSubmitCompetitive(t *testing.T) {
	ctx := context.Background()
	scores := &fakeScores{}
	r := New(Config{GameID: "snake", Competitive: true, Scores: scores})
	child := &fakeChild{id: "c1"}
	r.Attach(child)
	r.SetHighScore(100)
	r.Deliver(ctx, "c1", Ready{})

	r.Deliver(ctx, "c1", SubmitScore{Score: 250})
	r.Deliver(ctx, "c1", SubmitScore{Score: 50})

	if len(scores.submitted) != 2 {
		t.Fatalf("submitted = %v, expected two writes", scores.submitted)
	}
	if got := r.HighScore(); got != 250 {
		t.Errorf("HighScore() = %d, expected optimistic 250", got)
	}
	got := child.highScores()
	if len(got) != 2 || got[1] != 250 {
		t.Errorf("high score pushes = %v, expected [100 250]", got)
	}
}

func TestSubmitNonCompetitive(t *testing.T) {
	ctx := context.Background()
	scores := &fakeScores{}
	r := New(Config{GameID: "chess", Competitive: false, Scores: scores})
	r.Attach(&fakeChild{id: "c1"})

	r.Deliver(ctx, "c1", SubmitScore{Score: 250})

	if len(scores.submitted) != 0 {
		t.Errorf("non-competitive game wrote scores: %v", scores.submitted)
	}
	if r.HighScore() != 0 {
		t.Error("non-competitive submit raised the high score")
	}
}

func TestSoundEffectForwarded(t *testing.T) {
	sounds := &fakeSounds{}
	r := New(Config{GameID: "snake", Sounds: sounds})
	r.Attach(&fakeChild{id: "c1"})

	r.Deliver(context.Background(), "c1", SoundEffect{Name: "crash"})

	if len(sounds.played) != 1 || sounds.played[0] != "crash" {
		t.Errorf("played = %v, expected [crash]", sounds.played)
	}
}

func TestDeliverRawDropsGarbage(t *testing.T) {
	var notified []Message
	r := New(Config{GameID: "snake", Notify: func(m Message) { notified = append(notified, m) }})
	r.Attach(&fakeChild{id: "c1"})

	r.DeliverRaw(context.Background(), "c1", []byte(`{"type":"teleport"}`))
	r.DeliverRaw(context.Background(), "c1", []byte(`not json`))
	r.DeliverRaw(context.Background(), "c1", []byte(`{"type":"game-over","score":7}`))

	if len(notified) != 1 {
		t.Fatalf("notified = %v, expected only the game-over", notified)
	}
	if g, ok := notified[0].(GameOver); !ok || g.Score != 7 {
		t.Errorf("notified[0] = %#v", notified[0])
	}
}

func TestRequestRestart(t *testing.T) {
	r := New(Config{GameID: "snake"})
	r.RequestRestart()

	child := &fakeChild{id: "c1"}
	r.Attach(child)
	r.RequestRestart()

	msgs := child.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent = %v", msgs)
	}
	if _, ok := msgs[0].(RestartRequest); !ok {
		t.Errorf("sent %T, expected RestartRequest", msgs[0])
	}
}

func TestDetachDropsMessages(t *testing.T) {
	var notified []Message
	r := New(Config{GameID: "snake", Notify: func(m Message) { notified = append(notified, m) }})
	r.Attach(&fakeChild{id: "c1"})
	r.Detach()

	r.Deliver(context.Background(), "c1", Ready{})
	if len(notified) != 0 {
		t.Error("message delivered after Detach")
	}
}
