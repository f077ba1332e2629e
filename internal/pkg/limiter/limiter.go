package limiter

import (
	"context"
	"errors"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("rate limited")

type Limiter struct {
	instance *redis_rate.Limiter
}

func NewLimiter(client redis.UniversalClient) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("limiter: redis client is nil")
	}
	return &Limiter{redis_rate.NewLimiter(client)}, nil
}

// Allow consumes one request from key's budget and returns ErrRateLimited once it is spent.
func (l *Limiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	res, err := l.instance.Allow(ctx, key, limit)
	if err != nil {
		return err
	}
	if res.Allowed == 0 {
		return ErrRateLimited
	}
	return nil
}
