package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/internal/store"
)

// KeyPrefix namespaces preference keys in a shared Redis.
const KeyPrefix = "graphboard:pref:"

type redisPreferenceStore struct {
	client *goredis.Client
}

func NewRedisPreferenceStore(client *goredis.Client) store.PreferenceStore {
	return &redisPreferenceStore{client: client}
}

// Init only checks the server is reachable, Redis needs no schema.
func (s *redisPreferenceStore) Init(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisPreferenceStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, KeyPrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", custom_errors.ErrPreferenceNotFound
	}
	return value, err
}

func (s *redisPreferenceStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, KeyPrefix+key, value, 0).Err()
}

func (s *redisPreferenceStore) Close() error {
	return s.client.Close()
}
