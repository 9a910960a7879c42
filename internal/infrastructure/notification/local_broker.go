package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// LocalBroker implements Notifier and Subscriber with in-process channels.
// It is used in tests and in single-instance deployments that run without
// Redis.
type LocalBroker struct {
	mu       sync.RWMutex
	handlers map[uuid.UUID]map[int]func(payload []byte)
	nextID   int
	closed   bool
}

// NewLocalBroker creates a new in-process broker
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{
		handlers: make(map[uuid.UUID]map[int]func(payload []byte)),
	}
}

// Notify delivers the message synchronously to all current subscribers
// of the identity
func (b *LocalBroker) Notify(ctx context.Context, identityID uuid.UUID, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("broker is closed")
	}
	subs := make([]func(payload []byte), 0, len(b.handlers[identityID]))
	for _, h := range b.handlers[identityID] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	for _, h := range subs {
		h(data)
	}
	return nil
}

// Subscribe attaches a handler to the identity's channel
func (b *LocalBroker) Subscribe(ctx context.Context, identityID uuid.UUID, handler func(payload []byte)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}

	if b.handlers[identityID] == nil {
		b.handlers[identityID] = make(map[int]func(payload []byte))
	}
	id := b.nextID
	b.nextID++
	b.handlers[identityID][id] = handler

	stop := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[identityID], id)
		if len(b.handlers[identityID]) == 0 {
			delete(b.handlers, identityID)
		}
	}

	return stop, nil
}

// SubscriberCount returns the number of active subscriptions for an identity
func (b *LocalBroker) SubscriberCount(identityID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[identityID])
}

// Close rejects all further publishes and subscriptions
func (b *LocalBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[uuid.UUID]map[int]func(payload []byte))
}

var (
	_ Notifier   = (*LocalBroker)(nil)
	_ Subscriber = (*LocalBroker)(nil)
)
