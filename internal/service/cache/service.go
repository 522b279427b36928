package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/convoml/intent-classifier-go/internal/constants"
	"github.com/convoml/intent-classifier-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService fronts Redis as a score cache. Identical (model, prompt) pairs
// are deterministic for fixed weights, so cached confidences stay valid for
// the TTL.
type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

// GetScore looks up a cached confidence. Misses and cache errors both report
// not-found; the caller recomputes.
func (c *CacheService) GetScore(ctx context.Context, key string) (float64, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}

	score, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.logger.Warn("Cache value not a float", zap.String("key", key), zap.Error(err))
		return 0, false
	}

	return score, true
}

// SetScore stores a confidence with the standard TTL. Failures are logged and
// swallowed; caching is best-effort.
func (c *CacheService) SetScore(ctx context.Context, key string, score float64) {
	value := strconv.FormatFloat(score, 'f', -1, 64)
	if err := c.client.Set(ctx, key, value, constants.CacheTTL.ModelScore).Err(); err != nil {
		c.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CacheService) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errors.NewCacheError("ping failed", "ping", "", err)
	}
	return nil
}

func (c *CacheService) Close() error {
	return c.client.Close()
}
