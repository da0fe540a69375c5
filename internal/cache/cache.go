// Package cache keeps completed search results for a short TTL so that an
// identical intent re-submitted moments later skips the provider round trip.
// It is a cache, not a store of record: entries expire and misses are cheap.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkurniadi/faregate/internal/models"
	"github.com/mkurniadi/faregate/internal/observability"
)

type Cache interface {
	Get(ctx context.Context, intent models.SearchIntent) ([]models.Offer, bool)
	Set(ctx context.Context, intent models.SearchIntent, offers []models.Offer) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, intent models.SearchIntent) ([]models.Offer, bool) {
	data, err := c.client.Get(ctx, Key(intent)).Bytes()
	if err != nil {
		observability.ObserveCache("miss")
		return nil, false
	}

	var offers []models.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		observability.ObserveCache("miss")
		return nil, false
	}

	observability.ObserveCache("hit")
	return offers, true
}

func (c *RedisCache) Set(ctx context.Context, intent models.SearchIntent, offers []models.Offer) error {
	data, err := json.Marshal(offers)
	if err != nil {
		return err
	}

	observability.ObserveCache("set")
	return c.client.Set(ctx, Key(intent), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, intent models.SearchIntent) ([]models.Offer, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, intent models.SearchIntent, offers []models.Offer) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// Key hashes the whole normalized intent; two intents differing in any
// field (legs and passenger mix included) never share an entry.
func Key(intent models.SearchIntent) string {
	data, _ := json.Marshal(intent)
	hash := sha256.Sum256(data)
	return "search:" + hex.EncodeToString(hash[:])
}
