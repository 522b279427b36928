package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/convoml/intent-classifier-go/internal/config"
	"github.com/convoml/intent-classifier-go/internal/domain"
	"github.com/convoml/intent-classifier-go/internal/util"
	"go.uber.org/zap"
)

type fakeStore struct {
	batches map[string][]domain.ClassificationResult
}

func (f *fakeStore) SaveResults(_ context.Context, batchID string, results []domain.ClassificationResult) error {
	if f.batches == nil {
		f.batches = make(map[string][]domain.ClassificationResult)
	}
	f.batches[batchID] = results
	return nil
}

func newTestClassifier(store ResultStore, providers ...ScoreProvider) *ClassifierService {
	intents := []string{"Book Appointment", "Support Request"}
	scorer := NewMultiModelScorer(&fakeProviderSet{providers: providers}, nil, zap.NewNop())
	selector := NewIntentSelector(scorer, intents, config.StrategyMax, 2, zap.NewNop())
	rationale := NewRationaleGenerator(testKeywords, true, 0.5)
	return NewClassifierService(selector, rationale, store, 5, 2, time.Minute, zap.NewNop())
}

func TestClassifyBatchSkipsEmptyConversation(t *testing.T) {
	provider := &fakeProvider{id: "model-a", scores: map[string]float64{
		"Book Appointment": 0.8,
		"Support Request":  0.2,
	}}
	svc := newTestClassifier(nil, provider)

	conversations := []domain.Conversation{
		{ConversationID: "c1", Messages: []domain.Message{
			{Sender: "user", Text: "I want to schedule a viewing"},
		}},
		{ConversationID: "c2", Messages: nil},
		{ConversationID: "c3", Messages: []domain.Message{
			{Sender: "user", Text: "Can I book a tour?"},
		}},
	}

	report, err := svc.ClassifyBatch(context.Background(), conversations)
	if err != nil {
		t.Fatalf("ClassifyBatch returned error: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(report.Failures))
	}
	if report.Failures[0].ConversationID != "c2" {
		t.Errorf("failed conversation = %q, want c2", report.Failures[0].ConversationID)
	}

	// Every input is accounted for: two results plus one recorded failure.
	seen := map[string]bool{}
	for _, r := range report.Results {
		seen[r.ConversationID] = true
	}
	for _, f := range report.Failures {
		seen[f.ConversationID] = true
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if !seen[id] {
			t.Errorf("conversation %s missing from report", id)
		}
	}
}

func TestClassifyBatchResultInvariants(t *testing.T) {
	provider := &fakeProvider{id: "model-a", scores: map[string]float64{
		"Book Appointment": 0.9,
		"Support Request":  0.4,
	}}
	svc := newTestClassifier(nil, provider)

	report, err := svc.ClassifyBatch(context.Background(), []domain.Conversation{
		{ConversationID: "c1", Messages: []domain.Message{
			{Sender: "user", Text: "I want to schedule a viewing for this weekend"},
		}},
	})
	if err != nil {
		t.Fatalf("ClassifyBatch returned error: %v", err)
	}

	result := report.Results[0]
	if !util.Contains([]string{"Book Appointment", "Support Request"}, result.PredictedIntent) {
		t.Errorf("predicted intent %q outside the allowed set", result.PredictedIntent)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("confidence %v outside [0, 1]", result.Confidence)
	}
	if result.Rationale == "" {
		t.Error("rationale must not be empty")
	}
}

func TestClassifyBatchPersistsResults(t *testing.T) {
	provider := &fakeProvider{id: "model-a", scores: map[string]float64{
		"Book Appointment": 0.8,
		"Support Request":  0.1,
	}}
	store := &fakeStore{}
	svc := newTestClassifier(store, provider)

	_, err := svc.ClassifyBatch(context.Background(), []domain.Conversation{
		{ConversationID: "c1", Messages: []domain.Message{
			{Sender: "user", Text: "Let me book a visit"},
		}},
	})
	if err != nil {
		t.Fatalf("ClassifyBatch returned error: %v", err)
	}

	if len(store.batches) != 1 {
		t.Fatalf("persisted batches = %d, want 1", len(store.batches))
	}
	for _, results := range store.batches {
		if len(results) != 1 {
			t.Errorf("persisted results = %d, want 1", len(results))
		}
	}
}

func TestClassifyBatchRejectsWhenNotLoaded(t *testing.T) {
	svc := newTestClassifier(nil)

	_, err := svc.ClassifyBatch(context.Background(), []domain.Conversation{
		{ConversationID: "c1", Messages: []domain.Message{
			{Sender: "user", Text: "hello"},
		}},
	})
	if err == nil {
		t.Fatal("expected error when engine has no loaded models")
	}
}

func TestClassifyBatchRationaleUsesScenarioKeyword(t *testing.T) {
	provider := &fakeProvider{id: "model-a", scores: map[string]float64{
		"Book Appointment": 0.95,
		"Support Request":  0.05,
	}}
	svc := newTestClassifier(nil, provider)

	report, err := svc.ClassifyBatch(context.Background(), []domain.Conversation{
		{ConversationID: "c1", Messages: []domain.Message{
			{Sender: "user", Text: "I want to schedule a viewing for this weekend"},
		}},
	})
	if err != nil {
		t.Fatalf("ClassifyBatch returned error: %v", err)
	}

	result := report.Results[0]
	if result.PredictedIntent != "Book Appointment" {
		t.Fatalf("predicted intent = %q", result.PredictedIntent)
	}
	if want := "schedule"; !strings.Contains(result.Rationale, want) {
		t.Errorf("rationale %q missing %q", result.Rationale, want)
	}
}
