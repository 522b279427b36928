package service

import (
	"context"

	"github.com/convoml/intent-classifier-go/internal/config"
	"github.com/convoml/intent-classifier-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Selection is the winning intent with its confidence.
type Selection struct {
	Intent     string
	Confidence float64
}

// IntentSelector iterates every candidate intent against every loaded model
// and picks the best-scoring intent. Two strategies are supported:
//
//   - "max": the historical behavior. A per-intent running blend
//     agg = (agg + score) / 2 is maintained (weighting recent model votes more
//     heavily), while the prediction itself follows the single highest raw
//     per-model score. Ties keep the first (intent, model) pair in iteration
//     order: configured intent order outer, model load order inner.
//   - "average": true per-intent arithmetic mean over all model votes with
//     argmax over the means, ties resolving to the earlier intent.
type IntentSelector struct {
	scorer   *MultiModelScorer
	intents  []string
	strategy string
	workers  int
	logger   *zap.Logger
}

func NewIntentSelector(scorer *MultiModelScorer, intents []string, strategy string, workers int, logger *zap.Logger) *IntentSelector {
	if workers < 1 {
		workers = 1
	}
	return &IntentSelector{
		scorer:   scorer,
		intents:  intents,
		strategy: strategy,
		workers:  workers,
		logger:   logger,
	}
}

type pairOutcome struct {
	score float64
	err   error
}

// Select scores all (intent, model) pairs and returns the winner. Pairs run on
// a bounded pool; outcomes land in an indexed slice and are folded in iteration
// order afterwards, so aggregation stays deterministic regardless of goroutine
// scheduling. A failed pair is an omitted vote; when every pair fails the
// selection itself fails rather than fabricating a prediction.
func (s *IntentSelector) Select(ctx context.Context, history, lastMessage string) (*Selection, error) {
	providers := s.scorer.Providers()
	if len(providers) == 0 {
		return nil, errors.NewEngineNotLoadedError()
	}

	outcomes := make([]pairOutcome, len(s.intents)*len(providers))

	p := pool.New().WithMaxGoroutines(s.workers)
	for i, intent := range s.intents {
		for j, provider := range providers {
			idx := i*len(providers) + j
			intent, provider := intent, provider
			p.Go(func() {
				score, err := s.scorer.Score(ctx, provider, intent, history, lastMessage)
				outcomes[idx] = pairOutcome{score: score, err: err}
			})
		}
	}
	p.Wait()

	blended := make(map[string]float64, len(s.intents))
	sums := make(map[string]float64, len(s.intents))
	counts := make(map[string]int, len(s.intents))

	var (
		bestIntent string
		bestScore  = -1.0
		votes      int
		lastErr    error
	)

	for i, intent := range s.intents {
		for j := range providers {
			outcome := outcomes[i*len(providers)+j]
			if outcome.err != nil {
				lastErr = outcome.err
				continue
			}

			votes++
			blended[intent] = (blended[intent] + outcome.score) / 2
			sums[intent] += outcome.score
			counts[intent]++

			if outcome.score > bestScore {
				bestScore = outcome.score
				bestIntent = intent
			}
		}
	}

	if votes == 0 {
		return nil, errors.NewClassifierError("all forward passes failed", errors.CodeInference, 500, nil).WithCause(lastErr)
	}

	if s.strategy == config.StrategyAverage {
		return s.selectByAverage(sums, counts), nil
	}

	s.logger.Debug("Intent selected",
		zap.String("intent", bestIntent),
		zap.Float64("confidence", bestScore),
		zap.Float64("blended", blended[bestIntent]),
		zap.Int("votes", votes),
	)

	return &Selection{Intent: bestIntent, Confidence: bestScore}, nil
}

func (s *IntentSelector) selectByAverage(sums map[string]float64, counts map[string]int) *Selection {
	var (
		bestIntent string
		bestMean   = -1.0
	)

	for _, intent := range s.intents {
		if counts[intent] == 0 {
			continue
		}
		mean := sums[intent] / float64(counts[intent])
		if mean > bestMean {
			bestMean = mean
			bestIntent = intent
		}
	}

	s.logger.Debug("Intent selected by average",
		zap.String("intent", bestIntent),
		zap.Float64("confidence", bestMean),
	)

	return &Selection{Intent: bestIntent, Confidence: bestMean}
}
