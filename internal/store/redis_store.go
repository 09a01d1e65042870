package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tzkusman/live-storefront/internal/domain"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address       string
	Password      string
	DB            int
	Channel       string // presence channel name, e.g. online_users
	CursorChannel string // pub/sub channel for cursor updates
	InstanceID    string // origin_instance_id in published payloads
	StaleAfter    time.Duration
}

// redisStore implements PresenceStore using Redis.
type redisStore struct {
	client        *redis.Client
	hashKey       string
	cursorChannel string
	instanceID    string
	staleAfter    time.Duration
}

// Redis key patterns:
// presence:channel:{channel}   HASH<user_id, StoredCursor JSON>  - latest record per participant
// presence:cursor_updates      PUBSUB                            - per-update fan-out between instances

// NewRedisStore creates a new Redis-backed presence store.
func NewRedisStore(cfg RedisConfig) (PresenceStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	channel := cfg.CursorChannel
	if channel == "" {
		channel = "presence:cursor_updates"
	}
	staleAfter := cfg.StaleAfter
	if staleAfter == 0 {
		staleAfter = 90 * time.Second
	}

	return &redisStore{
		client:        client,
		hashKey:       fmt.Sprintf("presence:channel:%s", cfg.Channel),
		cursorChannel: channel,
		instanceID:    cfg.InstanceID,
		staleAfter:    staleAfter,
	}, nil
}

func (s *redisStore) SetCursor(ctx context.Context, c domain.Cursor, seq uint64) error {
	stored := StoredCursor{
		Cursor:    c,
		Seq:       seq,
		UpdatedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.hashKey, c.UserID, string(data)).Err()
}

func (s *redisStore) RemoveCursor(ctx context.Context, userID string) error {
	return s.client.HDel(ctx, s.hashKey, userID).Err()
}

// LoadCursors reads the shared snapshot, skipping entries stale enough that
// their owning instance has evidently stopped refreshing them.
func (s *redisStore) LoadCursors(ctx context.Context) (map[string]StoredCursor, error) {
	result, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.staleAfter).Unix()
	cursors := make(map[string]StoredCursor, len(result))
	for userID, raw := range result {
		var stored StoredCursor
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			continue
		}
		if stored.UpdatedAt < cutoff {
			continue
		}
		cursors[userID] = stored
	}
	return cursors, nil
}

func (s *redisStore) PublishUpdate(ctx context.Context, payload domain.CursorUpdatePayload) error {
	payload.OriginInstanceID = s.instanceID
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.cursorChannel, string(data)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
