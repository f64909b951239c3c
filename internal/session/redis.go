package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的会话存储，每个会话一个 hash
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return fmt.Sprintf("sparkreach:session:%s", sid)
}

// Get 读取
func (s *RedisStore) Get(ctx context.Context, sid, key string) ([]byte, error) {
	result, err := s.client.HGet(ctx, s.key(sid), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	return result, nil
}

// Set 写入并刷新过期时间
func (s *RedisStore) Set(ctx context.Context, sid, key string, value []byte) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(sid), key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sid), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Delete 删除
func (s *RedisStore) Delete(ctx context.Context, sid string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key(sid), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}
