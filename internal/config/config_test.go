package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Engine.Models) != 1 || cfg.Engine.Models[0] != "roberta-large-mnli" {
		t.Errorf("default models = %v", cfg.Engine.Models)
	}
	if cfg.Engine.MaxHistoryTurns != 5 {
		t.Errorf("MaxHistoryTurns = %d, want 5", cfg.Engine.MaxHistoryTurns)
	}
	if cfg.Engine.ConfidenceThreshold != 0.5 {
		t.Errorf("ConfidenceThreshold = %v, want 0.5", cfg.Engine.ConfidenceThreshold)
	}
	if cfg.Engine.SelectionStrategy != StrategyMax {
		t.Errorf("SelectionStrategy = %q, want %q", cfg.Engine.SelectionStrategy, StrategyMax)
	}
	if len(cfg.Intents.Allowed) != 5 {
		t.Errorf("default intents = %v", cfg.Intents.Allowed)
	}
	if len(cfg.Intents.Keywords) != len(cfg.Intents.Allowed) {
		t.Errorf("default keywords cover %d intents, want %d", len(cfg.Intents.Keywords), len(cfg.Intents.Allowed))
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MODELS", "roberta-large-mnli, facebook/bart-large-mnli")
	t.Setenv("MAX_HISTORY_TURNS", "3")
	t.Setenv("ALLOWED_INTENTS", "Book Appointment,Support Request")
	t.Setenv("ENGINE_SELECTION_STRATEGY", "average")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Engine.Models) != 2 || cfg.Engine.Models[1] != "facebook/bart-large-mnli" {
		t.Errorf("models = %v", cfg.Engine.Models)
	}
	if cfg.Engine.MaxHistoryTurns != 3 {
		t.Errorf("MaxHistoryTurns = %d, want 3", cfg.Engine.MaxHistoryTurns)
	}
	if len(cfg.Intents.Allowed) != 2 {
		t.Errorf("intents = %v", cfg.Intents.Allowed)
	}
	if cfg.Engine.SelectionStrategy != StrategyAverage {
		t.Errorf("SelectionStrategy = %q", cfg.Engine.SelectionStrategy)
	}
}

func TestLoadKeywordOverride(t *testing.T) {
	t.Setenv("INTENT_KEYWORDS", `{"Book Appointment":["schedule","tour"]}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Intents.Keywords["Book Appointment"]; len(got) != 2 || got[0] != "schedule" {
		t.Errorf("keywords = %v", got)
	}
}

func TestLoadRejectsMalformedKeywords(t *testing.T) {
	t.Setenv("INTENT_KEYWORDS", "{not json")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed INTENT_KEYWORDS")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Engine: EngineConfig{
				Models:              []string{"roberta-large-mnli"},
				MaxHistoryTurns:     5,
				ConfidenceThreshold: 0.5,
				SelectionStrategy:   StrategyMax,
				Workers:             4,
			},
			Intents: IntentConfig{Allowed: []string{"Book Appointment"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no models", func(c *Config) { c.Engine.Models = nil }, "MODELS"},
		{"no intents", func(c *Config) { c.Intents.Allowed = nil }, "ALLOWED_INTENTS"},
		{"zero history turns", func(c *Config) { c.Engine.MaxHistoryTurns = 0 }, "MAX_HISTORY_TURNS"},
		{"threshold above one", func(c *Config) { c.Engine.ConfidenceThreshold = 1.5 }, "CONFIDENCE_THRESHOLD"},
		{"bad strategy", func(c *Config) { c.Engine.SelectionStrategy = "median" }, "ENGINE_SELECTION_STRATEGY"},
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }, "ENGINE_WORKERS"},
		{"openai model without key", func(c *Config) { c.Engine.Models = []string{"openai/gpt-4o-mini"} }, "OPENAI_API_KEY"},
		{"gemini model without key", func(c *Config) { c.Engine.Models = []string{"gemini/gemini-2.0-flash"} }, "GEMINI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestParseCommaSeparated(t *testing.T) {
	got := parseCommaSeparated(" a, b ,, c ")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("parseCommaSeparated = %v", got)
	}
}
