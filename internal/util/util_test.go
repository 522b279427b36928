package util

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 5, "hello..."},
		{"rune-based not byte-based", "안녕하세요 반갑습니다", 5, "안녕하세요..."},
		{"empty string", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxRunes); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestHashKeyStable(t *testing.T) {
	a := HashKey("score-key")
	b := HashKey("score-key")
	if a != b {
		t.Errorf("HashKey is not stable: %q vs %q", a, b)
	}
	if len(a) != 40 {
		t.Errorf("HashKey length = %d, want 40 hex chars", len(a))
	}
	if a == HashKey("other-key") {
		t.Error("distinct inputs produced the same digest")
	}
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, zap.NewNop())

	if !cb.CanExecute() {
		t.Fatal("new breaker should allow execution")
	}

	cb.RecordFailure(0)
	cb.RecordFailure(0)
	if cb.GetState() != CircuitStateClosed {
		t.Errorf("state = %s before threshold, want CLOSED", cb.GetState())
	}

	cb.RecordFailure(0)
	if cb.GetState() != CircuitStateOpen {
		t.Errorf("state = %s after threshold, want OPEN", cb.GetState())
	}
	if cb.CanExecute() {
		t.Error("open breaker should block execution")
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Millisecond, zap.NewNop())

	cb.RecordFailure(0)
	if cb.GetState() != CircuitStateOpen {
		t.Fatalf("state = %s, want OPEN", cb.GetState())
	}

	time.Sleep(5 * time.Millisecond)
	if cb.GetState() != CircuitStateHalfOpen {
		t.Fatalf("state = %s after timeout, want HALF_OPEN", cb.GetState())
	}

	cb.RecordSuccess()
	if cb.GetState() != CircuitStateClosed {
		t.Errorf("state = %s after recovery, want CLOSED", cb.GetState())
	}
}

func TestCircuitBreakerCustomTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Millisecond, zap.NewNop())

	cb.RecordFailure(time.Hour)
	time.Sleep(5 * time.Millisecond)

	if cb.GetState() != CircuitStateOpen {
		t.Errorf("state = %s, want OPEN under custom timeout", cb.GetState())
	}

	status := cb.GetStatus()
	if status.NextRetryTime == nil {
		t.Fatal("open breaker should report a retry time")
	}
	if time.Until(*status.NextRetryTime) < 50*time.Minute {
		t.Errorf("retry time %v does not reflect the custom timeout", status.NextRetryTime)
	}

	cb.Reset()
	if cb.GetState() != CircuitStateClosed {
		t.Errorf("state = %s after Reset, want CLOSED", cb.GetState())
	}
}

func TestContains(t *testing.T) {
	slice := []string{"Book Appointment", "Support Request"}
	if !Contains(slice, "Support Request") {
		t.Error("Contains missed a present item")
	}
	if Contains(slice, "Follow-Up") {
		t.Error("Contains matched an absent item")
	}
}
