package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Engine   EngineConfig
	Intents  IntentConfig
	HF       HFConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Server   ServerConfig
	Output   OutputConfig
	Logging  LoggingConfig
}

// EngineConfig controls the scoring engine itself: which models to load and how
// the selector turns per-model votes into a prediction.
type EngineConfig struct {
	Models              []string
	MaxHistoryTurns     int
	ConfidenceThreshold float64
	RationaleEnabled    bool
	SelectionStrategy   string
	Workers             int
	BatchTimeout        time.Duration
}

type IntentConfig struct {
	Allowed  []string
	Keywords map[string][]string
}

type HFConfig struct {
	BaseURL string
	APIKey  string
}

type OpenAIConfig struct {
	APIKey string
}

type GeminiConfig struct {
	APIKey string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type ServerConfig struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

type OutputConfig struct {
	Dir string
}

type LoggingConfig struct {
	Level string
	File  string
}

// Selection strategies accepted by ENGINE_SELECTION_STRATEGY.
const (
	StrategyMax     = "max"
	StrategyAverage = "average"
)

// Defaults mirror the deployment this classifier was first built for: one NLI
// model and a fixed real-estate-flavored intent set.
var (
	defaultModels  = []string{"roberta-large-mnli"}
	defaultIntents = []string{
		"Book Appointment",
		"Product Inquiry",
		"Pricing Negotiation",
		"Support Request",
		"Follow-Up",
	}
	defaultKeywords = map[string][]string{
		"Book Appointment":    {"schedule", "appointment", "visit", "viewing", "tour", "meet", "book", "come see"},
		"Product Inquiry":     {"looking for", "need", "bhk", "property", "details", "specifications", "tell me about"},
		"Pricing Negotiation": {"budget", "price", "cost", "negotiate", "discount", "max", "afford", "deal"},
		"Support Request":     {"issue", "problem", "help", "support", "not working", "error", "fix", "urgent"},
		"Follow-Up":           {"following up", "update", "status", "waiting", "checking in", "any news", "previously"},
	}
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	keywords, err := parseKeywordMap(getEnv("INTENT_KEYWORDS", ""))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		Engine: EngineConfig{
			Models:              getEnvList("MODELS", defaultModels),
			MaxHistoryTurns:     getEnvInt("MAX_HISTORY_TURNS", 5),
			ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.5),
			RationaleEnabled:    getEnvBool("RATIONALE_ENABLED", true),
			SelectionStrategy:   getEnv("ENGINE_SELECTION_STRATEGY", StrategyMax),
			Workers:             getEnvInt("ENGINE_WORKERS", 4),
			BatchTimeout:        time.Duration(getEnvInt("BATCH_TIMEOUT_SECONDS", 300)) * time.Second,
		},
		Intents: IntentConfig{
			Allowed:  getEnvList("ALLOWED_INTENTS", defaultIntents),
			Keywords: keywords,
		},
		HF: HFConfig{
			BaseURL: getEnv("HF_INFERENCE_BASE_URL", "https://api-inference.huggingface.co"),
			APIKey:  getEnv("HF_API_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "intent_classifier"),
		},
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			MaxUploadBytes:  int64(getEnvInt("SERVER_MAX_UPLOAD_MB", 16)) * 1024 * 1024,
			ShutdownTimeout: time.Duration(getEnvInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "output"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if len(cfg.Intents.Keywords) == 0 {
		cfg.Intents.Keywords = defaultKeywords
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Engine.Models) == 0 {
		return fmt.Errorf("at least one entry in MODELS is required")
	}
	if len(c.Intents.Allowed) == 0 {
		return fmt.Errorf("ALLOWED_INTENTS is required")
	}
	if c.Engine.MaxHistoryTurns < 1 {
		return fmt.Errorf("MAX_HISTORY_TURNS must be at least 1")
	}
	if c.Engine.ConfidenceThreshold < 0 || c.Engine.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0, 1]")
	}
	switch c.Engine.SelectionStrategy {
	case StrategyMax, StrategyAverage:
	default:
		return fmt.Errorf("ENGINE_SELECTION_STRATEGY must be %q or %q", StrategyMax, StrategyAverage)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("ENGINE_WORKERS must be at least 1")
	}
	for _, model := range c.Engine.Models {
		if strings.HasPrefix(model, "openai/") && c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for model %s", model)
		}
		if strings.HasPrefix(model, "gemini/") && c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for model %s", model)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parsed := parseCommaSeparated(value); len(parsed) > 0 {
			return parsed
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseKeywordMap decodes INTENT_KEYWORDS, a JSON object mapping intent labels
// to keyword lists. Empty input yields an empty map so defaults apply.
func parseKeywordMap(value string) (map[string][]string, error) {
	if value == "" {
		return map[string][]string{}, nil
	}
	var keywords map[string][]string
	if err := json.Unmarshal([]byte(value), &keywords); err != nil {
		return nil, fmt.Errorf("INTENT_KEYWORDS must be a JSON object of string lists: %w", err)
	}
	return keywords, nil
}
