package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/presence"
)

// Subscriber listens on the Redis cursor-update channel and folds peer
// instances' updates into the local presence service.
type Subscriber struct {
	client  *redis.Client
	channel string
	service presence.Service
	doneCh  chan struct{}
}

// NewSubscriber creates a Redis Pub/Sub subscriber for cursor updates.
func NewSubscriber(client *redis.Client, channel string, svc presence.Service) *Subscriber {
	if channel == "" {
		channel = "presence:cursor_updates"
	}
	return &Subscriber{
		client:  client,
		channel: channel,
		service: svc,
		doneCh:  make(chan struct{}),
	}
}

// Done returns a channel that is closed when Run() exits.
func (s *Subscriber) Done() <-chan struct{} { return s.doneCh }

// Run subscribes to the channel and applies updates until ctx is done.
// Reconnects on receive errors.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.doneCh)
	l := log.Component("pubsub")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := s.runSubscription(ctx); err != nil && ctx.Err() == nil {
				l.Warn().Err(err).Msg("cursor pubsub subscription error, reconnecting in 2s")
				select {
				case <-ctx.Done():
					return
				case <-time.After(2 * time.Second):
					continue
				}
			}
			return
		}
	}
}

func (s *Subscriber) runSubscription(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for subscription to be active
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handleMessage(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handleMessage(ctx context.Context, payload string) {
	var update domain.CursorUpdatePayload
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		l := log.Component("pubsub")
		l.Warn().Err(err).Msg("invalid cursor payload")
		return
	}
	if update.Cursor.UserID == "" {
		return
	}

	s.service.ApplyRemote(ctx, &update)
}
