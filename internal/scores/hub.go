package scores

import (
	"sync"

	"github.com/vovakirdan/retrodesk/internal/storage"
)

type subscriber struct {
	limit int
	ch    chan []storage.ScoreRecord
}

// hub fans top-N snapshots out to live subscribers of one game.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]*subscriber
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]*subscriber)}
}

func (h *hub) add(gameID string, limit int) (*subscriber, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	sub := &subscriber{limit: limit, ch: make(chan []storage.ScoreRecord, 1)}
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[int]*subscriber)
	}
	h.subs[gameID][id] = sub

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[gameID], id)
			if len(h.subs[gameID]) == 0 {
				delete(h.subs, gameID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (h *hub) watched(gameID string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*subscriber, 0, len(h.subs[gameID]))
	for _, s := range h.subs[gameID] {
		out = append(out, s)
	}
	return out
}

// deliver replaces any unread snapshot with the newer one. Subscribers
// removed in the meantime are skipped.
func (h *hub) deliver(gameID string, sub *subscriber, top []storage.ScoreRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	live := false
	for _, s := range h.subs[gameID] {
		if s == sub {
			live = true
			break
		}
	}
	if !live {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- top
}
