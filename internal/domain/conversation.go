package domain

// Message is a single turn in a conversation. Sender is free-form; "user" and
// "agent" are the common values. Text arrives raw and may contain emoji.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Conversation is immutable once received. ConversationID is not guaranteed
// unique within a batch; duplicates are processed independently.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// PreprocessedTurn is the windowed, normalized view of a conversation that the
// scoring engine consumes. History never includes the last message.
type PreprocessedTurn struct {
	ConversationID string `json:"conversation_id"`
	History        string `json:"history"`
	LastMessage    string `json:"last_message"`
}

// ScoredIntent is a transient per-(intent, model) vote.
type ScoredIntent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	ModelID    string  `json:"model_id"`
}

// ClassificationResult is the terminal record persisted to output.
type ClassificationResult struct {
	ConversationID  string  `json:"conversation_id"`
	PredictedIntent string  `json:"predicted_intent"`
	Confidence      float64 `json:"confidence"`
	Rationale       string  `json:"rationale"`
}

// FailedConversation records why a conversation produced no result. Every
// conversation in a batch ends up either in results or here; silent drops are
// a defect.
type FailedConversation struct {
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason"`
}

// BatchReport is the orchestrator's output for one batch.
type BatchReport struct {
	Results  []ClassificationResult `json:"results"`
	Failures []FailedConversation   `json:"failures,omitempty"`
}
