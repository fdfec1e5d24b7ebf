// Package events is the in-process notification channel between client components.
package events

import (
	"sync"

	"go.uber.org/zap"

	"teo-client-go/internal/models"
)

// Kind names an event type.
type Kind string

const (
	// KindWalletUpdated fires whenever the linked-wallet state may have changed.
	KindWalletUpdated Kind = "wallet:updated"
	// KindNotificationsUpdated tells listeners that pending-decision data should be re-read.
	KindNotificationsUpdated Kind = "notifications:updated"
)

// Event is implemented by the payload types below.
type Event interface {
	Kind() Kind
}

// WalletUpdated carries the wallet link as last seen by the publisher. Link is
// nil when the publisher did not refetch it.
type WalletUpdated struct {
	Link   *models.WalletLink
	Reason string
}

func (WalletUpdated) Kind() Kind { return KindWalletUpdated }

// NotificationsUpdated has no payload beyond who raised it.
type NotificationsUpdated struct {
	Source string
}

func (NotificationsUpdated) Kind() Kind { return KindNotificationsUpdated }

// Handler receives events of the kind it subscribed to.
type Handler func(Event)

// Publisher is the write half of the bus, for components that only emit.
type Publisher interface {
	Publish(Event)
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Kind][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers h for kind and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[kind] = next
			return
		}
	}
}

// Publish calls every handler registered for e's kind at the time of the call.
// Handlers may subscribe or unsubscribe while being called.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.subs[e.Kind()]
	b.mu.RUnlock()

	zap.L().Debug("Publishing event",
		zap.String("kind", string(e.Kind())),
		zap.Int("subscribers", len(subs)))

	for _, s := range subs {
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Event handler panicked",
				zap.String("kind", string(e.Kind())),
				zap.Any("panic", r))
		}
	}()
	s.handler(e)
}

// SubscriberCount reports how many handlers are registered for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

// OnWalletUpdated subscribes a typed handler to KindWalletUpdated.
func (b *Bus) OnWalletUpdated(h func(WalletUpdated)) func() {
	return b.Subscribe(KindWalletUpdated, func(e Event) {
		if w, ok := e.(WalletUpdated); ok {
			h(w)
		}
	})
}

// OnNotificationsUpdated subscribes a typed handler to KindNotificationsUpdated.
func (b *Bus) OnNotificationsUpdated(h func(NotificationsUpdated)) func() {
	return b.Subscribe(KindNotificationsUpdated, func(e Event) {
		if n, ok := e.(NotificationsUpdated); ok {
			h(n)
		}
	})
}
