package constants

import "time"

var ScoringConfig = struct {
	MaxSequenceLength int
	RequestTimeout    time.Duration
}{
	MaxSequenceLength: 512,
	RequestTimeout:    30 * time.Second,
}

var RationaleConfig = struct {
	MaxQuoteLength int
	LineDelimiter  string
	UserLineToken  string
}{
	MaxQuoteLength: 80,
	LineDelimiter:  "|",
	UserLineToken:  "user:",
}

var CacheTTL = struct {
	ModelScore time.Duration
}{
	ModelScore: 30 * time.Minute,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	RateLimitTimeout time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     30 * time.Second,
	RateLimitTimeout: 1 * time.Hour,
}
