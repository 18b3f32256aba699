package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "despesas:history:"

// RedisStore keeps each user's names in a redis list, newest at the head.
type RedisStore struct {
	client *redis.Client
	limit  int
}

// NewRedisStore connects to url and checks the connection.
func NewRedisStore(ctx context.Context, url string, limit int) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.ConnMaxIdleTime = 200 * time.Second

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", opt.Addr, "db", opt.DB)
	return NewRedisStoreWithClient(client, limit), nil
}

func NewRedisStoreWithClient(client *redis.Client, limit int) *RedisStore {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &RedisStore{client: client, limit: limit}
}

func key(userID string) string {
	return keyPrefix + userID
}

// maxPushAttempts bounds the optimistic retries of Push when another
// writer changes the same list.
const maxPushAttempts = 10

// Push removes every case-insensitive duplicate of name and prepends it.
// The list is watched while it is read, so a concurrent Push makes the
// transaction fail and retry instead of leaving duplicates.
func (r *RedisStore) Push(ctx context.Context, userID, name string) error {
	k := key(userID)
	norm := normalize(name)
	push := func(tx *redis.Tx) error {
		current, err := tx.LRange(ctx, k, 0, -1).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, existing := range current {
				if normalize(existing) == norm {
					pipe.LRem(ctx, k, 0, existing)
				}
			}
			pipe.LPush(ctx, k, name)
			pipe.LTrim(ctx, k, 0, int64(r.limit-1))
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxPushAttempts; attempt++ {
		err := r.client.Watch(ctx, push, k)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("write history: %w", err)
		}
	}
	return fmt.Errorf("write history: %w", redis.TxFailedErr)
}

func (r *RedisStore) List(ctx context.Context, userID string) ([]string, error) {
	names, err := r.client.LRange(ctx, key(userID), 0, int64(r.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return names, nil
}

func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, key(userID)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
