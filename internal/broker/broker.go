package broker

import (
	"sync"

	"examboard-api/internal/models"
)

// DefaultBuffer is the per-subscriber channel depth. Snapshots are full
// state, not deltas, so a lagging subscriber that drops one converges on
// the next publish.
const DefaultBuffer = 16

// Subscription is the handle returned by Subscribe. Receive deliveries from
// C; the channel is closed by Unsubscribe.
type Subscription struct {
	room string
	ch   chan models.Snapshot
}

// C returns the delivery channel for this subscription.
func (s *Subscription) C() <-chan models.Snapshot {
	return s.ch
}

// Room returns the room this subscription is bound to.
func (s *Subscription) Room() string {
	return s.room
}

// Broker is a room-keyed in-process pub/sub hub. Rooms are free-form
// strings created implicitly on first subscribe; a room with no subscribers
// does not exist in memory, and publishing to it is a no-op.
type Broker struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscription]struct{}
	buf   int
}

func New() *Broker {
	return &Broker{
		rooms: make(map[string]map[*Subscription]struct{}),
		buf:   DefaultBuffer,
	}
}

// NewBuffered creates a Broker whose subscriber channels hold up to buf
// undelivered snapshots.
func NewBuffered(buf int) *Broker {
	if buf < 1 {
		buf = 1
	}
	b := New()
	b.buf = buf
	return b
}

// Subscribe registers a new delivery sink under room and returns its
// handle. It never fails; subscriptions to the same room are independent.
func (b *Broker) Subscribe(room string) *Subscription {
	sub := &Subscription{room: room, ch: make(chan models.Snapshot, b.buf)}

	b.mu.Lock()
	set, ok := b.rooms[room]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.rooms[room] = set
		roomsGauge.Inc()
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	subsGauge.Inc()
	return sub
}

// Unsubscribe removes the sink and closes its channel. Idempotent: a nil
// handle, a handle already removed, or one that was never registered is a
// no-op.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.rooms[sub.room]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.rooms, sub.room)
		roomsGauge.Dec()
	}
	close(sub.ch)
	subsGauge.Dec()
}

// Publish delivers snap to every current subscriber of room. Sends are
// non-blocking: a subscriber whose buffer is full drops this snapshot
// rather than stalling delivery to the others. The read lock held here
// excludes Unsubscribe's channel close, so a send can never hit a closed
// channel; it is never held across network I/O.
func (b *Broker) Publish(room string, snap models.Snapshot) {
	publishCtr.Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.rooms[room] {
		select {
		case sub.ch <- snap:
		default:
			dropsCtr.Inc()
		}
	}
}

// Subscribers reports the number of active subscriptions for room.
func (b *Broker) Subscribers(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[room])
}

// Rooms reports the number of rooms with at least one subscriber.
func (b *Broker) Rooms() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms)
}
