package app

import (
	"context"
	"fmt"

	"github.com/convoml/intent-classifier-go/internal/config"
	"github.com/convoml/intent-classifier-go/internal/output"
	"github.com/convoml/intent-classifier-go/internal/prompt"
	"github.com/convoml/intent-classifier-go/internal/service"
	"github.com/convoml/intent-classifier-go/internal/service/cache"
	"github.com/convoml/intent-classifier-go/internal/service/database"
	"go.uber.org/zap"
)

// Container bundles assembled services for the server and CLI entry points.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *service.ModelRegistry
	Classifier *service.ClassifierService
	Output     *output.Writer

	closers []func()
}

// Close releases infrastructure connections in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles the full dependency graph. Model loading is eager: no
// request is served against a partially-initialized engine, and a load failure
// aborts startup.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Optional infrastructure
	var scoreCache service.ScoreCache
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", cacheErr)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
		scoreCache = cacheSvc
	}

	var resultStore service.ResultStore
	if cfg.Postgres.Enabled {
		store, storeErr := database.NewResultStore(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if storeErr != nil {
			return nil, fmt.Errorf("failed to create result store: %w", storeErr)
		}
		closers = append(closers, func() {
			_ = store.Close()
		})
		resultStore = store
	}

	// Scoring engine
	prompts := prompt.NewPromptBuilder()
	registry := service.NewModelRegistry(cfg, prompts, logger)

	if err := registry.Load(ctx, cfg.Engine.Models); err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	logger.Info("All models loaded", zap.Strings("models", registry.ModelIDs()))

	scorer := service.NewMultiModelScorer(registry, scoreCache, logger)
	selector := service.NewIntentSelector(
		scorer,
		cfg.Intents.Allowed,
		cfg.Engine.SelectionStrategy,
		cfg.Engine.Workers,
		logger,
	)
	rationale := service.NewRationaleGenerator(
		cfg.Intents.Keywords,
		cfg.Engine.RationaleEnabled,
		cfg.Engine.ConfidenceThreshold,
	)

	classifier := service.NewClassifierService(
		selector,
		rationale,
		resultStore,
		cfg.Engine.MaxHistoryTurns,
		cfg.Engine.Workers,
		cfg.Engine.BatchTimeout,
		logger,
	)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Classifier: classifier,
		Output:     output.NewWriter(cfg.Output.Dir, logger),
		closers:    closers,
	}, nil
}
