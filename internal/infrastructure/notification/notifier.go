package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannelPrefix is the Redis channel namespace for identity channels
const DefaultChannelPrefix = "notify:"

// Notifier delivers a message to a single identity's channel
type Notifier interface {
	Notify(ctx context.Context, identityID uuid.UUID, msg Message) error
}

// Subscriber attaches a handler to an identity's channel. The returned
// stop function releases the subscription; calling it is the only way
// to unsubscribe.
type Subscriber interface {
	Subscribe(ctx context.Context, identityID uuid.UUID, handler func(payload []byte)) (stop func(), err error)
}

// RedisBroker implements Notifier and Subscriber over Redis Pub/Sub.
// Each identity gets its own channel so a subscriber only ever sees
// events addressed to it.
type RedisBroker struct {
	client        *redis.Client
	channelPrefix string
	sendTimeout   time.Duration
	logger        *zap.Logger
}

// RedisBrokerOption is a functional option for RedisBroker
type RedisBrokerOption func(*RedisBroker)

// WithChannelPrefix sets the channel namespace
func WithChannelPrefix(prefix string) RedisBrokerOption {
	return func(b *RedisBroker) {
		b.channelPrefix = prefix
	}
}

// WithSendTimeout bounds a single publish
func WithSendTimeout(timeout time.Duration) RedisBrokerOption {
	return func(b *RedisBroker) {
		b.sendTimeout = timeout
	}
}

// NewRedisBroker creates a broker with an existing Redis client.
// The caller retains ownership of the client and is responsible for
// closing it.
func NewRedisBroker(client *redis.Client, logger *zap.Logger, opts ...RedisBrokerOption) *RedisBroker {
	b := &RedisBroker{
		client:        client,
		channelPrefix: DefaultChannelPrefix,
		sendTimeout:   5 * time.Second,
		logger:        logger,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ChannelFor returns the Redis channel name for an identity
func (b *RedisBroker) ChannelFor(identityID uuid.UUID) string {
	return b.channelPrefix + identityID.String()
}

// Notify publishes a message to the identity's channel
func (b *RedisBroker) Notify(ctx context.Context, identityID uuid.UUID, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if b.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.sendTimeout)
		defer cancel()
	}

	channel := b.ChannelFor(identityID)
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("failed to publish notification",
			zap.String("channel", channel),
			zap.String("event_type", msg.EventType),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	b.logger.Debug("notification published",
		zap.String("channel", channel),
		zap.String("event_type", msg.EventType),
		zap.String("aggregate_id", msg.AggregateID.String()),
	)

	return nil
}

// Subscribe attaches a handler to the identity's channel. The handler
// runs on the subscription goroutine, so it must not block.
func (b *RedisBroker) Subscribe(ctx context.Context, identityID uuid.UUID, handler func(payload []byte)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	channel := b.ChannelFor(identityID)

	pubsub := b.client.Subscribe(subCtx, channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to channel %s: %w", channel, err)
	}

	b.logger.Info("subscribed to identity channel", zap.String("channel", channel))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					b.logger.Warn("identity channel closed", zap.String("channel", channel))
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
		b.logger.Info("unsubscribed from identity channel", zap.String("channel", channel))
	}

	return stop, nil
}

// Ensure RedisBroker implements both sides
var (
	_ Notifier   = (*RedisBroker)(nil)
	_ Subscriber = (*RedisBroker)(nil)
)
