package auth

import (
	"sync"
	"time"
)

// EventKind is a session change.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// Event describes who signed in or out.
type Event struct {
	Kind      EventKind `json:"kind"`
	ProfileID string    `json:"profile_id"`
	At        time.Time `json:"at"`
}

// Broker fans session events out to subscribers.
type Broker struct {
	mu   sync.RWMutex
	subs map[int]func(Event)
	next int
}

// NewBroker creates a broker with no subscribers.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function removing it.
func (b *Broker) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every subscriber synchronously.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
