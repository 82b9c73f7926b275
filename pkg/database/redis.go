package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"direct_message_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisRepository 定义接口
type RedisRepository[T any] interface {
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Get(ctx context.Context, key string) (T, error)
	Del(ctx context.Context, key string) error
	GetTTL(ctx context.Context, key string) (int, error)
	ExtendTTL(ctx context.Context, key string, ttl time.Duration) error
}

// redisRepository 实现 RedisRepository
type redisRepository[T any] struct {
	client *redis.Client
}

// NewRedisClient init Redis connection
// sentinelAddrs 為空時退回單節點連線（本地開發、測試容器）
func NewRedisClient(masterName, addr string, sentinelAddrs []string, db int) (*redis.Client, error) {
	var rdb *redis.Client
	if len(sentinelAddrs) > 0 {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    masterName,    // 哨兵主节点名称
			SentinelAddrs: sentinelAddrs, // 哨兵地址列表
			Password:      "",
			DB:            db,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		})
	}

	// 测试连接
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// NewRedisRepository init Redis repository (Set , Get, Del, GetTTL, ExtendTTL)
func NewRedisRepository[T any](masterName, addr string, sentinelAddrs []string, db int) (RedisRepository[T], error) {
	rdb, err := NewRedisClient(masterName, addr, sentinelAddrs, db)
	if err != nil {
		return nil, err
	}
	return &redisRepository[T]{client: rdb}, nil
}

func (r *redisRepository[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisRepository[T]) Get(ctx context.Context, key string) (T, error) {
	var zeroValue T
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return zeroValue, fmt.Errorf("redis.Nil")
	} else if err != nil {
		return zeroValue, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var result T
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		logger.Log.Error("redis get err :", zap.String("err", fmt.Sprintf("failed to unmarshal data: %v", err)))
		return zeroValue, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return result, nil
}

func (r *redisRepository[T]) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisRepository[T]) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *redisRepository[T]) GetTTL(ctx context.Context, key string) (int, error) {
	ttl, err := r.client.TTL(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to get TTL for key %s: %w", key, err)
	}

	if ttl < 0 {
		return 0, nil
	}

	return int(ttl.Seconds()), nil
}
