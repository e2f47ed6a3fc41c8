package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"arena-matchmaking/models"
)

const (
	// EventsChannel carries msgpack-encoded lifecycle events
	EventsChannel = "arena:match-events"

	matchTTL = 7 * 24 * time.Hour
)

// ErrMatchNotArchived is returned for a match id absent from the archive
var ErrMatchNotArchived = errors.New("match not archived")

// RedisStorage keeps match records and publishes the lifecycle event feed
type RedisStorage struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStorage connects to Redis
func NewRedisStorage(addr string, password string, db int, logger *zap.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveMatch stores the match record and indexes it under both players
func (s *RedisStorage) SaveMatch(ctx context.Context, m *models.Match) error {
	matchJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	score := float64(m.CreatedAt.UnixNano())
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.matchKey(m.ID), matchJSON, matchTTL)
		for _, playerID := range []string{m.PlayerA, m.PlayerB} {
			key := s.historyKey(playerID)
			pipe.ZAdd(ctx, key, &redis.Z{Score: score, Member: m.ID})
			pipe.Expire(ctx, key, matchTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	s.logger.Debug("Match archived",
		zap.String("match_id", m.ID),
		zap.String("state", string(m.State)),
	)

	return nil
}

// GetMatch returns the archived match record
func (s *RedisStorage) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	matchJSON, err := s.client.Get(ctx, s.matchKey(matchID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrMatchNotArchived)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	var m models.Match
	if err := json.Unmarshal([]byte(matchJSON), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &m, nil
}

// PlayerMatches returns the player's most recent matches, newest first
func (s *RedisStorage) PlayerMatches(ctx context.Context, playerID string, limit int64) ([]*models.Match, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, err := s.client.ZRevRange(ctx, s.historyKey(playerID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get match history: %w", err)
	}

	matches := make([]*models.Match, 0, len(ids))
	for _, id := range ids {
		m, err := s.GetMatch(ctx, id)
		if errors.Is(err, ErrMatchNotArchived) {
			continue
		}
		if err != nil {
			s.logger.Warn("Failed to load archived match",
				zap.String("match_id", id),
				zap.Error(err),
			)
			continue
		}
		matches = append(matches, m)
	}

	return matches, nil
}

// Publish sends a lifecycle event to the event feed
func (s *RedisStorage) Publish(ctx context.Context, ev models.MatchEvent) error {
	payload, err := msgpack.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.client.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// EventSubscription reads the lifecycle event feed
type EventSubscription struct {
	pubsub   *redis.PubSub
	messages <-chan *redis.Message
}

// Subscribe attaches to the event feed. It returns once the subscription is confirmed.
func (s *RedisStorage) Subscribe(ctx context.Context) (*EventSubscription, error) {
	pubsub := s.client.Subscribe(ctx, EventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}
	return &EventSubscription{pubsub: pubsub, messages: pubsub.Channel()}, nil
}

// Next blocks until the next event arrives or ctx is done
func (e *EventSubscription) Next(ctx context.Context) (models.MatchEvent, error) {
	var ev models.MatchEvent

	select {
	case <-ctx.Done():
		return ev, ctx.Err()
	case msg, ok := <-e.messages:
		if !ok {
			return ev, errors.New("event subscription closed")
		}
		if err := msgpack.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			return ev, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return ev, nil
	}
}

// Close detaches from the event feed
func (e *EventSubscription) Close() error {
	return e.pubsub.Close()
}

// matchKey returns the key of a match record
func (s *RedisStorage) matchKey(matchID string) string {
	return fmt.Sprintf("match:%s", matchID)
}

// historyKey returns the key of a player's match index
func (s *RedisStorage) historyKey(playerID string) string {
	return fmt.Sprintf("player:%s:matches", playerID)
}
