package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter segura o volume de envios por gateway numa janela fixa.
// Contador compartilhado no Redis para valer entre instâncias do worker.
type RedisLimiter struct {
	Client *redis.Client
	Limit  int64
	Window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		Client: client,
		Limit:  limit,
		Window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, gatewayID string) (bool, error) {
	if l.Limit <= 0 {
		return true, nil
	}

	bucket := time.Now().Unix() / int64(l.Window.Seconds())
	key := fmt.Sprintf("zap:rl:%s:%d", gatewayID, bucket)

	pipe := l.Client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= l.Limit, nil
}
