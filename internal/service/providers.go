package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/convoml/intent-classifier-go/internal/constants"
	"github.com/convoml/intent-classifier-go/internal/prompt"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ScoreProvider is one loaded model handle. Score returns the probability in
// [0, 1] that the conversation expresses the candidate intent. Implementations
// hold only read-only state after construction, so Score is safe to call
// concurrently.
type ScoreProvider interface {
	Name() string
	ModelID() string
	Score(ctx context.Context, history, lastMessage, intent string) (float64, error)
	Ping(ctx context.Context) bool
}

// HFProvider scores through the Hugging Face Inference API against a
// sequence-classification model (NLI or sentiment style). The entailment /
// positive label probability is the confidence.
type HFProvider struct {
	baseURL    string
	apiKey     string
	modelID    string
	prompts    *prompt.PromptBuilder
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHFProvider(baseURL, apiKey, modelID string, prompts *prompt.PromptBuilder, logger *zap.Logger) *HFProvider {
	return &HFProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		modelID: modelID,
		prompts: prompts,
		httpClient: &http.Client{
			Timeout: constants.ScoringConfig.RequestTimeout,
		},
		logger: logger,
	}
}

func (p *HFProvider) Name() string {
	return "HuggingFace"
}

func (p *HFProvider) ModelID() string {
	return p.modelID
}

type hfClassificationRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (p *HFProvider) Score(ctx context.Context, history, lastMessage, intent string) (float64, error) {
	promptText := p.prompts.BuildEntailmentPrompt(history, lastMessage, intent)

	reqBody := hfClassificationRequest{
		Inputs: promptText,
		Parameters: map[string]any{
			"truncation": true,
			"max_length": constants.ScoringConfig.MaxSequenceLength,
		},
		Options: map[string]any{
			"wait_for_model": true,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshal inference request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("Inference request failed",
			zap.String("model", p.modelID),
			zap.Error(err),
		)
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	// The API nests label scores one level per input; a single input yields
	// either [[{label, score}...]] or a flat [{label, score}...].
	var nested [][]hfLabelScore
	if err := json.Unmarshal(body, &nested); err != nil {
		var flat []hfLabelScore
		if err := json.Unmarshal(body, &flat); err != nil {
			return 0, fmt.Errorf("decode inference response: %w", err)
		}
		nested = [][]hfLabelScore{flat}
	}

	if len(nested) == 0 || len(nested[0]) == 0 {
		return 0, fmt.Errorf("empty inference response from %s", p.modelID)
	}

	score, ok := positiveLabelScore(nested[0])
	if !ok {
		return 0, fmt.Errorf("no entailment or positive label in response from %s", p.modelID)
	}

	return clamp01(score), nil
}

func (p *HFProvider) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	p.logger.Debug("Pinging inference endpoint...", zap.String("model", p.modelID))

	_, err := p.Score(ctx, "", "user: ping", "Support Request")
	if err != nil {
		p.logger.Debug("Inference endpoint ping failed",
			zap.String("model", p.modelID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// positiveLabelScore picks the entailment-class probability from a binary (or
// NLI three-way) label set: "ENTAILMENT" for NLI heads, "POSITIVE" for
// sentiment heads, "LABEL_1" for heads with anonymous labels.
func positiveLabelScore(labels []hfLabelScore) (float64, bool) {
	for _, candidate := range []string{"entailment", "positive", "label_1"} {
		for _, ls := range labels {
			if strings.EqualFold(ls.Label, candidate) {
				return ls.Score, true
			}
		}
	}
	return 0, false
}

// OpenAIProvider scores through an OpenAI chat model acting as an entailment
// judge in JSON mode.
type OpenAIProvider struct {
	client  *openai.Client
	modelID string
	prompts *prompt.PromptBuilder
	logger  *zap.Logger
}

func NewOpenAIProvider(apiKey, modelID string, prompts *prompt.PromptBuilder, logger *zap.Logger) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:  &client,
		modelID: modelID,
		prompts: prompts,
		logger:  logger,
	}
}

func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (p *OpenAIProvider) ModelID() string {
	return p.modelID
}

func (p *OpenAIProvider) Score(ctx context.Context, history, lastMessage, intent string) (float64, error) {
	if p.client == nil {
		return 0, fmt.Errorf("OpenAI client not initialized")
	}

	promptText := p.prompts.BuildJudgePrompt(history, lastMessage, intent)

	var model openai.ChatModel
	switch p.modelID {
	case "gpt-5-mini":
		model = openai.ChatModelGPT5Mini
	case "gpt-5":
		model = openai.ChatModelGPT5
	case "gpt-5-nano":
		model = openai.ChatModelGPT5Nano
	case "gpt-4.1":
		model = openai.ChatModelGPT4_1
	case "gpt-4.1-mini":
		model = openai.ChatModelGPT4_1Mini
	case "gpt-4o":
		model = openai.ChatModelGPT4o
	case "gpt-4o-mini":
		model = openai.ChatModelGPT4oMini
	default:
		model = openai.ChatModelGPT4_1Mini
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You must respond with valid JSON only. Do not include any text outside the JSON object."),
		openai.UserMessage(promptText),
	}

	isGPT5 := strings.HasPrefix(p.modelID, "gpt-5")

	params := openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(64),
	}
	if !isGPT5 {
		params.Temperature = openai.Float(0)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		p.logger.Error("OpenAI scoring failed",
			zap.String("model", p.modelID),
			zap.Error(err),
		)
		return 0, err
	}

	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no choices in OpenAI response")
	}

	return parseConfidenceJSON(resp.Choices[0].Message.Content, p.Name())
}

func (p *OpenAIProvider) Ping(ctx context.Context) bool {
	if p.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.logger.Debug("Pinging OpenAI API...")

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("ping"),
		},
		MaxTokens:   openai.Int(10),
		Temperature: openai.Float(0),
	})
	if err != nil {
		p.logger.Debug("OpenAI ping failed", zap.Error(err))
		return false
	}

	return len(resp.Choices) > 0
}

// GeminiProvider scores through a Gemini model acting as an entailment judge
// with a JSON response MIME type.
type GeminiProvider struct {
	client  *genai.Client
	modelID string
	prompts *prompt.PromptBuilder
	logger  *zap.Logger
}

func NewGeminiProvider(client *genai.Client, modelID string, prompts *prompt.PromptBuilder, logger *zap.Logger) *GeminiProvider {
	return &GeminiProvider{
		client:  client,
		modelID: modelID,
		prompts: prompts,
		logger:  logger,
	}
}

func (p *GeminiProvider) Name() string {
	return "Gemini"
}

func (p *GeminiProvider) ModelID() string {
	return p.modelID
}

func (p *GeminiProvider) Score(ctx context.Context, history, lastMessage, intent string) (float64, error) {
	if p.client == nil {
		return 0, fmt.Errorf("gemini client not initialized")
	}

	promptText := p.prompts.BuildJudgePrompt(history, lastMessage, intent)

	temp := float32(0)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  64,
		ResponseMIMEType: "application/json",
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.modelID, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: promptText},
			},
		},
	}, genConfig)
	if err != nil {
		p.logger.Error("Gemini scoring failed",
			zap.String("model", p.modelID),
			zap.Error(err),
		)
		return 0, err
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return 0, fmt.Errorf("empty response from Gemini")
	}

	return parseConfidenceJSON(text, p.Name())
}

func (p *GeminiProvider) Ping(ctx context.Context) bool {
	if p.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.logger.Debug("Pinging Gemini API...")

	temp := float32(0)
	resp, err := p.client.Models.GenerateContent(ctx, p.modelID, []*genai.Content{
		{Parts: []*genai.Part{{Text: "ping"}}},
	}, &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 10,
	})
	if err != nil {
		p.logger.Debug("Gemini ping failed", zap.Error(err))
		return false
	}

	return extractTextFromGeminiResponse(resp) != ""
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}

type confidenceResponse struct {
	Confidence float64 `json:"confidence"`
}

// parseConfidenceJSON decodes the judge response, tolerating markdown code
// fences around the JSON object.
func parseConfidenceJSON(text, providerName string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0, fmt.Errorf("%s returned empty response", providerName)
	}

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```json"))
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "```"))
	}
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}

	var parsed confidenceResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return 0, fmt.Errorf("invalid JSON from %s: %w", providerName, err)
	}

	return clamp01(parsed.Confidence), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
