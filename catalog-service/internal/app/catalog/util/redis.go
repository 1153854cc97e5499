package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName      = "catalog-service"
	variantsCacheKey = "variants:all"
	variantsPrefix   = "variants"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromConn оборачивает готовый клиент без ping (тесты)
func NewRedisClientFromConn(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

func (r *RedisClient) SetVariants(ctx context.Context, variants []entity.Variant, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}

	if err := r.client.Set(ctx, variantsCacheKey, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set variants in cache: %w", err)
	}

	return nil
}

func (r *RedisClient) GetVariants(ctx context.Context) ([]entity.Variant, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, variantsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, variantsPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get variants from cache: %w", err)
	}

	var variants []entity.Variant
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}

	metrics.RecordCacheHit(serviceName, variantsPrefix)
	return variants, nil
}

func (r *RedisClient) DeleteVariants(ctx context.Context) error {
	if err := r.client.Del(ctx, variantsCacheKey).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete variants from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
