// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, engine profiles, collaborator providers, and storage paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ScheduleMode decides how records without a parseable schedule are treated
// during constrained recommendation.
type ScheduleMode string

const (
	// ScheduleModeStrict excludes schedule-less records from the
	// conflict-free candidate set. Matches the DB-backed reference behavior.
	ScheduleModeStrict ScheduleMode = "strict"

	// ScheduleModeLenient treats schedule-less records as always available.
	ScheduleModeLenient ScheduleMode = "lenient"
)

// EngineProfile names one tuned set of scoring weights and thresholds.
// The historical engine variants differ only in these numbers, so they are
// configuration, not code paths.
type EngineProfile struct {
	Name string

	// Score = QueryWeight*querySim + InterestWeight*interestSim.
	QueryWeight    float64
	InterestWeight float64

	// Weights used when the query carries no topical signal beyond a
	// recommendation trigger ("뭐 추천해줘").
	GenericQueryWeight    float64
	GenericInterestWeight float64

	// MinSimilarity is the per-signal cutoff: a candidate is discarded only
	// when BOTH query and interest similarity fall below it.
	MinSimilarity float64

	// TitleMatchThreshold is the minimum title-embedding similarity for the
	// answerer to accept a program as the question's target.
	TitleMatchThreshold float64
}

// Profiles are the named engine variants. "standard" reproduces the
// DB-backed engine (0.55 title threshold); "strict" reproduces the earliest
// engine's 0.70 threshold.
var Profiles = map[string]EngineProfile{
	"standard": {
		Name:                  "standard",
		QueryWeight:           0.8,
		InterestWeight:        0.2,
		GenericQueryWeight:    0.5,
		GenericInterestWeight: 0.5,
		MinSimilarity:         0.30,
		TitleMatchThreshold:   0.55,
	},
	"strict": {
		Name:                  "strict",
		QueryWeight:           0.8,
		InterestWeight:        0.2,
		GenericQueryWeight:    0.5,
		GenericInterestWeight: 0.5,
		MinSimilarity:         0.30,
		TitleMatchThreshold:   0.70,
	},
}

// HTTP server timeouts. Writes are generous because a chat turn may wait on
// a collaborator call before the first byte goes out.
const (
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 60 * time.Second
	HTTPIdleTimeout  = 120 * time.Second
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir     string // Directory for the SQLite database
	RecordsPath string // Optional JSON file of program records imported at boot

	// Collaborator Configuration
	OpenAIAPIKey        string
	GeminiAPIKey        string
	PrimaryProvider     string // "openai" or "gemini"
	EmbeddingModel      string
	GenerationModel     string
	CollaboratorTimeout time.Duration

	// Engine Configuration
	Profile      EngineProfile
	ScheduleMode ScheduleMode
	TopK         int
	Workers      int // Bounded parallelism for candidate evaluation
}

// Load reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DataDir:     getEnv("DATA_DIR", "./data"),
		RecordsPath: getEnv("RECORDS_PATH", ""),

		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		PrimaryProvider:     getEnv("LLM_PRIMARY_PROVIDER", "openai"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		GenerationModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),
		CollaboratorTimeout: getEnvDuration("COLLABORATOR_TIMEOUT", 30*time.Second),

		ScheduleMode: ScheduleMode(getEnv("SCHEDULE_MODE", string(ScheduleModeStrict))),
		TopK:         getEnvInt("TOP_K", 5),
		Workers:      getEnvInt("ENGINE_WORKERS", runtime.NumCPU()),
	}

	profileName := getEnv("ENGINE_PROFILE", "standard")
	profile, ok := Profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("unknown engine profile: %q", profileName)
	}
	cfg.Profile = profile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" && c.GeminiAPIKey == "" {
		return errors.New("at least one of OPENAI_API_KEY or GEMINI_API_KEY is required")
	}
	switch c.PrimaryProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid LLM_PRIMARY_PROVIDER: %q", c.PrimaryProvider)
	}
	switch c.ScheduleMode {
	case ScheduleModeStrict, ScheduleModeLenient:
	default:
		return fmt.Errorf("invalid SCHEDULE_MODE: %q", c.ScheduleMode)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("ENGINE_WORKERS must be positive, got %d", c.Workers)
	}
	return nil
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration reads a duration environment variable with a fallback default
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
