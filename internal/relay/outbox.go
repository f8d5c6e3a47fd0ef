package relay

import "sync"

// Outbox is a buffered, non-blocking message queue toward a page.
// Producers never block: when the buffer is full the oldest message is
// dropped.
type Outbox struct {
	msgs     chan Message
	done     chan struct{}
	doneOnce sync.Once
}

// NewOutbox creates an outbox. size controls how many messages can be
// buffered before dropping.
func NewOutbox(size int) *Outbox {
	if size < 1 {
		size = 64
	}
	return &Outbox{
		msgs: make(chan Message, size),
		done: make(chan struct{}),
	}
}

// Send queues m. Sends after Close are ignored.
func (o *Outbox) Send(m Message) {
	select {
	case <-o.done:
		return
	default:
	}

	select {
	case o.msgs <- m:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-o.msgs:
		default:
		}
		select {
		case o.msgs <- m:
		default:
		}
	}
}

// Messages returns the channel the page reads from.
func (o *Outbox) Messages() <-chan Message {
	return o.msgs
}

// Done returns a channel closed by Close.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

// Close marks the outbox as done. Safe to call multiple times.
func (o *Outbox) Close() {
	o.doneOnce.Do(func() {
		close(o.done)
	})
}
