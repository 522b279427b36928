package errors

import "fmt"

// Error codes
const (
	CodeModelLoad         = "MODEL_LOAD_ERROR"
	CodeEngineNotLoaded   = "ENGINE_NOT_LOADED"
	CodeEmptyConversation = "EMPTY_CONVERSATION"
	CodeMalformedInput    = "MALFORMED_INPUT"
	CodeInference         = "INFERENCE_ERROR"
	CodeValidation        = "VALIDATION_ERROR"
	CodeCache             = "CACHE_ERROR"
	CodeStore             = "STORE_ERROR"
)

type ClassifierError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *ClassifierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClassifierError) Unwrap() error {
	return e.Cause
}

func NewClassifierError(message, code string, statusCode int, context map[string]any) *ClassifierError {
	return &ClassifierError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *ClassifierError) WithCause(cause error) *ClassifierError {
	e.Cause = cause
	return e
}

// ModelLoadError is fatal at startup: no request is served without at least one
// successfully loaded model.
type ModelLoadError struct {
	*ClassifierError
	ModelID string
}

func NewModelLoadError(message, modelID string, cause error) *ModelLoadError {
	return &ModelLoadError{
		ClassifierError: &ClassifierError{
			Message:    message,
			Code:       CodeModelLoad,
			StatusCode: 500,
			Context: map[string]any{
				"model_id": modelID,
			},
			Cause: cause,
		},
		ModelID: modelID,
	}
}

// EngineNotLoadedError indicates classification was invoked before any model
// finished loading. Recoverable at the process level by retrying after load.
type EngineNotLoadedError struct {
	*ClassifierError
}

func NewEngineNotLoadedError() *EngineNotLoadedError {
	return &EngineNotLoadedError{
		ClassifierError: &ClassifierError{
			Message:    "no model loaded, call Load() before classifying",
			Code:       CodeEngineNotLoaded,
			StatusCode: 503,
		},
	}
}

// EmptyConversationError is per-conversation: the batch orchestrator records it
// and continues with the remaining conversations.
type EmptyConversationError struct {
	*ClassifierError
	ConversationID string
}

func NewEmptyConversationError(conversationID string) *EmptyConversationError {
	return &EmptyConversationError{
		ClassifierError: &ClassifierError{
			Message:    "conversation has no messages",
			Code:       CodeEmptyConversation,
			StatusCode: 422,
			Context: map[string]any{
				"conversation_id": conversationID,
			},
		},
		ConversationID: conversationID,
	}
}

// MalformedInputError rejects a whole batch before any model work begins.
type MalformedInputError struct {
	*ClassifierError
}

func NewMalformedInputError(message string, cause error) *MalformedInputError {
	return &MalformedInputError{
		ClassifierError: &ClassifierError{
			Message:    message,
			Code:       CodeMalformedInput,
			StatusCode: 400,
			Cause:      cause,
		},
	}
}

// InferenceError covers a single failed (intent, model) forward pass. The
// selector treats it as an omitted vote unless every pair fails.
type InferenceError struct {
	*ClassifierError
	ModelID string
	Intent  string
}

func NewInferenceError(message, modelID, intent string, cause error) *InferenceError {
	return &InferenceError{
		ClassifierError: &ClassifierError{
			Message:    message,
			Code:       CodeInference,
			StatusCode: 500,
			Context: map[string]any{
				"model_id": modelID,
				"intent":   intent,
			},
			Cause: cause,
		},
		ModelID: modelID,
		Intent:  intent,
	}
}

type ValidationError struct {
	*ClassifierError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		ClassifierError: &ClassifierError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*ClassifierError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		ClassifierError: &ClassifierError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type StoreError struct {
	*ClassifierError
	Operation string
}

func NewStoreError(message, operation string, cause error) *StoreError {
	return &StoreError{
		ClassifierError: &ClassifierError{
			Message:    message,
			Code:       CodeStore,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}
