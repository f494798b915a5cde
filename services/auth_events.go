package services

import (
	"sync"

	"backend/models"
)

type AuthEventType string

const (
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is an identity lifecycle notification fanned out to
// subscribers (session manager, realtime hub glue).
type AuthEvent struct {
	Type    AuthEventType
	UserID  uint
	Session *models.Session
}

// AuthBus is an in-process subscribe/unsubscribe channel fanout.
// A subscription is a scoped resource: whoever subscribes must
// unsubscribe on teardown.
type AuthBus struct {
	mu   sync.Mutex
	subs map[int]chan AuthEvent
	next int
}

func NewAuthBus() *AuthBus {
	return &AuthBus{subs: make(map[int]chan AuthEvent)}
}

func (b *AuthBus) Subscribe() (int, <-chan AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan AuthEvent, 16)
	b.subs[id] = ch
	return id, ch
}

func (b *AuthBus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish never blocks; a subscriber that has fallen 16 events behind
// misses the event and reconverges on its next periodic check.
func (b *AuthBus) Publish(ev AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
