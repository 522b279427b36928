package service

import (
	"context"
	"strings"

	"github.com/convoml/intent-classifier-go/internal/constants"
	"github.com/convoml/intent-classifier-go/internal/util"
	"github.com/convoml/intent-classifier-go/pkg/errors"
	"go.uber.org/zap"
)

// ScoreCache memoizes per-(model, prompt) confidences. A nil cache is valid;
// cache failures degrade to recomputing.
type ScoreCache interface {
	GetScore(ctx context.Context, key string) (float64, bool)
	SetScore(ctx context.Context, key string, score float64)
}

// ProviderSet is the read-only view of loaded model handles the scorer works
// against. *ModelRegistry satisfies it.
type ProviderSet interface {
	Providers() []ScoreProvider
	Loaded() bool
}

// MultiModelScorer owns the loaded model set for the process lifetime. Score is
// read-only with respect to provider state, so calls may run concurrently
// across (intent, model) pairs.
type MultiModelScorer struct {
	registry ProviderSet
	cache    ScoreCache
	breaker  *util.CircuitBreaker
	logger   *zap.Logger
}

func NewMultiModelScorer(registry ProviderSet, cache ScoreCache, logger *zap.Logger) *MultiModelScorer {
	return &MultiModelScorer{
		registry: registry,
		cache:    cache,
		breaker: util.NewCircuitBreaker(
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

// Providers exposes the loaded handles in load order.
func (s *MultiModelScorer) Providers() []ScoreProvider {
	return s.registry.Providers()
}

// Loaded reports whether scoring is possible.
func (s *MultiModelScorer) Loaded() bool {
	return s.registry.Loaded()
}

// Score runs one (intent, model) forward pass and returns the confidence in
// [0, 1]. Failures come back as *errors.InferenceError so the selector can
// treat them as omitted votes.
func (s *MultiModelScorer) Score(ctx context.Context, provider ScoreProvider, intent, history, lastMessage string) (float64, error) {
	cacheKey := scoreCacheKey(provider.ModelID(), intent, history, lastMessage)

	if s.cache != nil {
		if score, ok := s.cache.GetScore(ctx, cacheKey); ok {
			return score, nil
		}
	}

	if !s.breaker.CanExecute() {
		return 0, errors.NewInferenceError("scoring backend unavailable (circuit open)", provider.ModelID(), intent, nil)
	}

	score, err := provider.Score(ctx, history, lastMessage, intent)
	if err != nil {
		s.recordFailure(err)
		s.logger.Warn("Forward pass failed",
			zap.String("model", provider.ModelID()),
			zap.String("intent", intent),
			zap.Error(err),
		)
		return 0, errors.NewInferenceError("forward pass failed", provider.ModelID(), intent, err)
	}

	s.breaker.RecordSuccess()

	if s.cache != nil {
		s.cache.SetScore(ctx, cacheKey, score)
	}

	return score, nil
}

func (s *MultiModelScorer) recordFailure(err error) {
	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	s.breaker.RecordFailure(timeout)
}

// CircuitStatus exposes breaker state for health reporting.
func (s *MultiModelScorer) CircuitStatus() util.CircuitBreakerStatus {
	return s.breaker.GetStatus()
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota")
}

func scoreCacheKey(modelID, intent, history, lastMessage string) string {
	return "score:" + modelID + ":" + util.HashKey(intent+"\x1f"+history+"\x1f"+lastMessage)
}
