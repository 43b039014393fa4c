// Package config aggregates the per-package configuration of questgen.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/generation"
	"github.com/abhisek/questgen/internal/llm"
	"github.com/abhisek/questgen/internal/relevance"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the complete service configuration.
type Config struct {
	// Addr is the HTTP listen address for `questgen serve`.
	Addr string

	// Environment selects logger and gin modes.
	Environment string

	// DBPath is the SQLite audit database. Empty resolves to the default path.
	DBPath string

	LLM        llm.Config
	Search     relevance.Config
	Generation generation.Config
}

// Load reads a .env file from the working directory when present, then
// builds the configuration from the environment. files overrides the .env
// lookup and each of them must exist.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && (len(files) > 0 || !os.IsNotExist(err)) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Addr:        getEnv("QUESTGEN_ADDR", ":8080"),
		Environment: getEnv("QUESTGEN_ENV", EnvDevelopment),
		DBPath:      os.Getenv("QUESTGEN_DB"),
		LLM:         llm.ConfigFromEnv(),
		Search:      relevance.ConfigFromEnv(),
		Generation:  generation.DefaultConfig(),
	}
	if v := os.Getenv("QUESTGEN_MAX_QUESTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("QUESTGEN_MAX_QUESTIONS must be a positive integer, got %q", v)
		}
		cfg.Generation.MaxQuestions = n
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Production reports whether the production environment is selected.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// NewLogger builds the zap logger for the environment: JSON to stdout in
// production, human-readable console output otherwise.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.Production() {
		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{"stdout"}
		zc.ErrorOutputPaths = []string{"stderr"}
		return zc.Build()
	}
	zc := zap.NewDevelopmentConfig()
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
