package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the runtime configuration, derived from environment variables.
type Config struct {
	// HTTP
	Port string

	// Storage
	DBPath string

	// Reasoner backend: "openai" (any OpenAI-compatible endpoint) or "ollama"
	ReasonerBackend string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	OllamaBaseURL string
	OllamaModel   string

	// Planner bounds
	MaxSteps   int
	StepBudget time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except the API key, which must be set.
func Load() (Config, error) {
	cfg := Config{
		Port:            envOr("PORT", "5000"),
		DBPath:          envOr("HRAGENT_DB_PATH", "hragent.db"),
		ReasonerBackend: envOr("HRAGENT_REASONER", "openai"),
		OpenAIBaseURL:   envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4"),
		OllamaBaseURL:   envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:     envOr("OLLAMA_MODEL", "llama3"),
		MaxSteps:        20,
		StepBudget:      60 * time.Second,
	}

	switch cfg.ReasonerBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" || cfg.OpenAIAPIKey == "your_openai_api_key_here" {
			return Config{}, fmt.Errorf("OPENAI_API_KEY is not set properly")
		}
	case "ollama":
	default:
		return Config{}, fmt.Errorf("invalid HRAGENT_REASONER: %q", cfg.ReasonerBackend)
	}

	if raw := os.Getenv("HRAGENT_MAX_STEPS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid HRAGENT_MAX_STEPS: %q", raw)
		}
		cfg.MaxSteps = parsed
	}

	if raw := os.Getenv("HRAGENT_STEP_BUDGET"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("invalid HRAGENT_STEP_BUDGET: %q", raw)
		}
		cfg.StepBudget = parsed
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
