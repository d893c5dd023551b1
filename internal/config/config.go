package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/frogcom/api/internal/llm"
)

const defaultSecondaryGoalPrompt = "You are a reviewing assistant. Analyze the answer and propose " +
	"clarifying questions or concrete improvements that would make it better. " +
	"Return only the list of questions or directions."

// Config holds all configuration for the API service
type Config struct {
	// Server
	Port        string
	Environment string

	// Completion providers (OpenAI-compatible endpoints)
	PrimaryBaseURL   string
	SecondaryBaseURL string

	// Model defaults seeding the configuration stores
	Primary       llm.GenerationParams
	Secondary     llm.GenerationParams
	Orchestration llm.OrchestrationSettings

	// Optional infrastructure
	DatabaseURL  string
	RedisURL     string
	NATSURL      string
	OTLPEndpoint string

	// HTTP boundary
	RateLimit      int
	CORSOrigins    []string
	MaxRequestSize int64
	LogDir         string

	// Security
	JWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8888"),
		Environment: getEnv("GO_ENV", "development"),

		PrimaryBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:8000"),
		SecondaryBaseURL: getEnv("LLM_BASE_URL_SECONDARY", getEnv("LLM_BASE_URL", "http://localhost:8000")),

		Primary: llm.GenerationParams{
			Model:       getEnv("LLM_MODEL", "Qwen/Qwen2.5-0.5B-Instruct"),
			MaxTokens:   getEnvInt("MAX_TOKENS", 4096),
			Temperature: getEnvFloat("TEMPERATURE", 0.7),
			TopP:        getEnvFloat("TOP_P", 0.9),
		},
		Secondary: llm.GenerationParams{
			Model:       getEnv("LLM_MODEL_SECONDARY", "Qwen/Qwen2.5-0.5B-Instruct"),
			MaxTokens:   getEnvInt("MAX_TOKENS_SECONDARY", 512),
			Temperature: getEnvFloat("TEMPERATURE_SECONDARY", 0.7),
			TopP:        getEnvFloat("TOP_P_SECONDARY", 0.9),
		},
		Orchestration: llm.OrchestrationSettings{
			Enabled:             getEnvBool("ORCHESTRATION_ENABLED", true),
			Rounds:              getEnvInt("COMMUNICATION_ROUNDS", 1),
			SecondaryGoalPrompt: getEnv("SECONDARY_GOAL_PROMPT", defaultSecondaryGoalPrompt),
		},

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		NATSURL:      os.Getenv("NATS_URL"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),

		RateLimit:      getEnvInt("API_RATE_LIMIT", 60),
		CORSOrigins:    strings.Split(getEnv("API_CORS_ORIGINS", "*"), ","),
		MaxRequestSize: int64(getEnvInt("API_MAX_REQUEST_SIZE", 10*1024*1024)),
		LogDir:         getEnv("LOG_DIR", "logs"),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return defaultValue
}
