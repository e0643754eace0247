package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// Redis stores each document as a single string value.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(ctx context.Context, cfg RedisConfig) (Redis, error) {
	if cfg.Addr == "" {
		return Redis{}, fmt.Errorf("an address is required for redis storage")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	err := client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return Redis{}, fmt.Errorf("redis ping: %w", err)
	}
	return Redis{client: client, prefix: cfg.Prefix}, nil
}

func (s Redis) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return body, err
}

func (s Redis) Put(ctx context.Context, key string, body []byte) error {
	return s.client.Set(ctx, s.prefix+key, body, 0).Err()
}

func (s Redis) Close() error {
	return s.client.Close()
}
