package sharedstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis deployment shared by the node fleet.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisStore connects to the Redis instance at url (redis:// form) and
// verifies the connection before returning.
func NewRedisStore(ctx context.Context, logger *slog.Logger, url string) (*RedisStore, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger.With("module", "sharedstore"),
	}, nil
}

func (s *RedisStore) PutReport(ctx context.Context, entry *Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode shared report entry: %w", err)
	}

	err = s.client.Set(ctx, ReportKey(entry.NodeID, entry.InstanceID), payload, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to write shared report entry: %w", err)
	}

	return nil
}

func (s *RedisStore) GetReport(ctx context.Context, nodeID, instanceID string) (*Entry, error) {
	payload, err := s.client.Get(ctx, ReportKey(nodeID, instanceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read shared report entry: %w", err)
	}

	var entry Entry

	err = json.Unmarshal(payload, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode shared report entry: %w", err)
	}

	if entry.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, entry.SchemaVersion, SchemaVersion)
	}

	return &entry, nil
}

func (s *RedisStore) DeleteReport(ctx context.Context, nodeID, instanceID string) error {
	err := s.client.Del(ctx, ReportKey(nodeID, instanceID)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete shared report entry: %w", err)
	}

	return nil
}

func (s *RedisStore) TrackInstance(ctx context.Context, nodeID, instanceID string, ttl time.Duration) error {
	key := IndexKey(nodeID)

	err := s.client.SAdd(ctx, key, instanceID).Err()
	if err != nil {
		return fmt.Errorf("failed to index tracked instance: %w", err)
	}

	err = s.client.Expire(ctx, key, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to refresh tracked-set TTL: %w", err)
	}

	return nil
}

func (s *RedisStore) ForgetInstance(ctx context.Context, nodeID, instanceID string) error {
	err := s.client.SRem(ctx, IndexKey(nodeID), instanceID).Err()
	if err != nil {
		return fmt.Errorf("failed to remove instance from tracked set: %w", err)
	}

	return nil
}

func (s *RedisStore) TrackedInstances(ctx context.Context, nodeID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, IndexKey(nodeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked instances: %w", err)
	}

	return members, nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	err := s.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
