package bridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/input"
	"github.com/vovakirdan/retrodesk/internal/programs"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/relay"
	"github.com/vovakirdan/retrodesk/internal/sandbox"
)

type counter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *counter) emit(_ string, m relay.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[m.Type()]++
}

func (c *counter) count(typ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[typ]
}

func waitCount(t *testing.T, c *counter, typ string, n int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if c.count(typ) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("got %d %q messages, expected %d", c.count(typ), typ, n)
}

// TestBundledRoundTrip runs snake with the shared support source. Without
// input the snake runs into the right wall, ending the round.
func TestBundledRoundTrip(t *testing.T) {
	entry, err := registry.Lookup("snake")
	if err != nil {
		t.Fatal(err)
	}
	entry.Runtime.TickRate = 200

	mux := input.New(input.DefaultOptions())
	defer mux.Close()

	c := &counter{counts: map[string]int{}}
	s := bridge.NewSession(bridge.Config{
		Entry:   entry,
		Fetcher: programs.NewFetcher(""),
		Sandbox: sandbox.Options{ReadyDelay: 5 * time.Millisecond},
		Input:   mux,
		Emit:    c.emit,
	})
	defer s.Close()

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !mux.Bound(s) {
		t.Error("running session should hold the input adapter")
	}

	waitCount(t, c, relay.TypeGameOver, 1)
	if c.count(relay.TypeError) != 0 {
		t.Fatalf("program error: %v", s.Err())
	}
	if c.count(relay.TypeSoundEffect) == 0 {
		t.Error("expected sound effects from the shared round end")
	}

	if err := s.Retry(); err != nil {
		t.Fatalf("Retry() failed: %v", err)
	}
	waitCount(t, c, relay.TypeRestartAck, 1)
	waitCount(t, c, relay.TypeGameOver, 2)
	if c.count(relay.TypeError) != 0 {
		t.Fatalf("program error after retry: %v", s.Err())
	}
}
