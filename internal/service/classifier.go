package service

import (
	"context"
	"fmt"
	"time"

	"github.com/convoml/intent-classifier-go/internal/domain"
	"github.com/convoml/intent-classifier-go/internal/preprocess"
	"github.com/convoml/intent-classifier-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ResultStore persists finished results. A nil store disables persistence.
type ResultStore interface {
	SaveResults(ctx context.Context, batchID string, results []domain.ClassificationResult) error
}

// ClassifierService is the batch orchestrator: it sequences windowing, intent
// selection and rationale generation for each conversation in a batch.
// Conversations are independent, so the batch fans out over a bounded pool.
type ClassifierService struct {
	selector        *IntentSelector
	rationale       *RationaleGenerator
	store           ResultStore
	maxHistoryTurns int
	workers         int
	batchTimeout    time.Duration
	logger          *zap.Logger
}

func NewClassifierService(
	selector *IntentSelector,
	rationale *RationaleGenerator,
	store ResultStore,
	maxHistoryTurns int,
	workers int,
	batchTimeout time.Duration,
	logger *zap.Logger,
) *ClassifierService {
	if workers < 1 {
		workers = 1
	}
	return &ClassifierService{
		selector:        selector,
		rationale:       rationale,
		store:           store,
		maxHistoryTurns: maxHistoryTurns,
		workers:         workers,
		batchTimeout:    batchTimeout,
		logger:          logger,
	}
}

type conversationOutcome struct {
	result  *domain.ClassificationResult
	failure *domain.FailedConversation
}

// ClassifyBatch processes every conversation and returns one result or one
// recorded failure per input. Per-conversation errors (empty message lists,
// exhausted model votes) never abort the batch.
func (s *ClassifierService) ClassifyBatch(ctx context.Context, conversations []domain.Conversation) (*domain.BatchReport, error) {
	if !s.selector.scorer.Loaded() {
		return nil, errors.NewEngineNotLoadedError()
	}

	if s.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.batchTimeout)
		defer cancel()
	}

	started := time.Now()
	outcomes := make([]conversationOutcome, len(conversations))

	p := pool.New().WithMaxGoroutines(s.workers)
	for idx, convo := range conversations {
		idx, convo := idx, convo
		p.Go(func() {
			outcomes[idx] = s.classifyOne(ctx, convo)
		})
	}
	p.Wait()

	report := &domain.BatchReport{
		Results: make([]domain.ClassificationResult, 0, len(conversations)),
	}
	for _, outcome := range outcomes {
		if outcome.result != nil {
			report.Results = append(report.Results, *outcome.result)
		}
		if outcome.failure != nil {
			report.Failures = append(report.Failures, *outcome.failure)
		}
	}

	s.logger.Info("Batch classified",
		zap.Int("conversations", len(conversations)),
		zap.Int("results", len(report.Results)),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("elapsed", time.Since(started)),
	)

	if s.store != nil && len(report.Results) > 0 {
		batchID := fmt.Sprintf("batch-%d", started.UnixNano())
		if err := s.store.SaveResults(ctx, batchID, report.Results); err != nil {
			s.logger.Error("Failed to persist batch results",
				zap.String("batch_id", batchID),
				zap.Error(err),
			)
		}
	}

	return report, nil
}

func (s *ClassifierService) classifyOne(ctx context.Context, convo domain.Conversation) conversationOutcome {
	turn, err := preprocess.Window(convo.ConversationID, convo.Messages, s.maxHistoryTurns)
	if err != nil {
		s.logger.Warn("Skipping conversation",
			zap.String("conversation_id", convo.ConversationID),
			zap.Error(err),
		)
		return conversationOutcome{failure: &domain.FailedConversation{
			ConversationID: convo.ConversationID,
			Reason:         err.Error(),
		}}
	}

	selection, err := s.selector.Select(ctx, turn.History, turn.LastMessage)
	if err != nil {
		s.logger.Error("Selection failed",
			zap.String("conversation_id", convo.ConversationID),
			zap.Error(err),
		)
		return conversationOutcome{failure: &domain.FailedConversation{
			ConversationID: convo.ConversationID,
			Reason:         err.Error(),
		}}
	}

	conversationText := turn.LastMessage
	if turn.History != "" {
		conversationText = turn.History + preprocess.HistorySeparator + turn.LastMessage
	}

	return conversationOutcome{result: &domain.ClassificationResult{
		ConversationID:  convo.ConversationID,
		PredictedIntent: selection.Intent,
		Confidence:      selection.Confidence,
		Rationale:       s.rationale.Generate(conversationText, selection.Intent, selection.Confidence),
	}}
}
