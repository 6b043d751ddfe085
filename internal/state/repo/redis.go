package repo

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis grava o blob como string simples, sem TTL
type Redis struct {
	R      *redis.Client
	Prefix string
}

func NewRedis(r *redis.Client) *Redis { return &Redis{R: r, Prefix: "agora:state:"} }

func (r *Redis) key(k string) string { return r.Prefix + k }

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.R.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Redis) Save(ctx context.Context, key string, blob []byte) error {
	return r.R.Set(ctx, r.key(key), blob, 0).Err()
}
