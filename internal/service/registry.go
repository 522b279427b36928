package service

import (
	"context"
	"strings"
	"sync"

	"github.com/convoml/intent-classifier-go/internal/config"
	"github.com/convoml/intent-classifier-go/internal/prompt"
	"github.com/convoml/intent-classifier-go/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Model id prefixes routing to chat-completion backends. Anything unprefixed
// is treated as a Hugging Face sequence-classification model id.
const (
	openAIModelPrefix = "openai/"
	geminiModelPrefix = "gemini/"
)

// ModelRegistry resolves configured model ids into live providers during the
// load phase and exposes them read-only afterwards. Load appends in configured
// order; that order is the selector's tie-break order.
type ModelRegistry struct {
	cfg     *config.Config
	prompts *prompt.PromptBuilder
	logger  *zap.Logger

	mu           sync.RWMutex
	providers    []ScoreProvider
	geminiClient *genai.Client
}

func NewModelRegistry(cfg *config.Config, prompts *prompt.PromptBuilder, logger *zap.Logger) *ModelRegistry {
	return &ModelRegistry{
		cfg:     cfg,
		prompts: prompts,
		logger:  logger,
	}
}

// Load materializes every model id in order. Loading is not atomic: handles
// loaded before a failure stay registered and usable, but the error still
// propagates so the caller can decide between a partial set and aborting
// (startup defaults to abort).
func (r *ModelRegistry) Load(ctx context.Context, modelIDs []string) error {
	for _, modelID := range modelIDs {
		provider, err := r.resolve(ctx, modelID)
		if err != nil {
			return err
		}

		if !provider.Ping(ctx) {
			return errors.NewModelLoadError("model backend unreachable", modelID, nil)
		}

		r.mu.Lock()
		r.providers = append(r.providers, provider)
		r.mu.Unlock()

		r.logger.Info("Model loaded",
			zap.String("model", modelID),
			zap.String("provider", provider.Name()),
		)
	}

	return nil
}

func (r *ModelRegistry) resolve(ctx context.Context, modelID string) (ScoreProvider, error) {
	switch {
	case strings.HasPrefix(modelID, openAIModelPrefix):
		name := strings.TrimPrefix(modelID, openAIModelPrefix)
		provider := NewOpenAIProvider(r.cfg.OpenAI.APIKey, name, r.prompts, r.logger)
		if provider == nil {
			return nil, errors.NewModelLoadError("OpenAI API key missing", modelID, nil)
		}
		return provider, nil

	case strings.HasPrefix(modelID, geminiModelPrefix):
		client, err := r.getGeminiClient(ctx)
		if err != nil {
			return nil, errors.NewModelLoadError("failed to create Gemini client", modelID, err)
		}
		name := strings.TrimPrefix(modelID, geminiModelPrefix)
		return NewGeminiProvider(client, name, r.prompts, r.logger), nil

	default:
		return NewHFProvider(r.cfg.HF.BaseURL, r.cfg.HF.APIKey, modelID, r.prompts, r.logger), nil
	}
}

func (r *ModelRegistry) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.geminiClient != nil {
		return r.geminiClient, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  r.cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	r.geminiClient = client
	return client, nil
}

// Providers returns the loaded handles in load order. The returned slice is a
// copy; the registry itself is never mutated after Load completes.
func (r *ModelRegistry) Providers() []ScoreProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]ScoreProvider, len(r.providers))
	copy(providers, r.providers)
	return providers
}

// Loaded reports whether at least one model finished loading.
func (r *ModelRegistry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// ModelIDs lists loaded model ids in load order.
func (r *ModelRegistry) ModelIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		ids = append(ids, p.ModelID())
	}
	return ids
}
