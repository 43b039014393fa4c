package relevance

import (
	"os"
	"time"
)

// Config configures the search backend connection.
type Config struct {
	// BaseURL is the search backend root, e.g. "http://localhost:9200".
	// Empty disables the backend; every lookup returns a fallback signal.
	BaseURL string

	// Index is the index holding reference questions.
	Index string

	// Timeout bounds each backend call (health probe and search separately).
	Timeout time.Duration

	// HealthCacheTTL is how long a health probe result is reused.
	HealthCacheTTL time.Duration

	// MaxCandidates caps the number of hits requested per search.
	MaxCandidates int
}

// DefaultConfig returns a disabled adapter config with the standard limits.
func DefaultConfig() Config {
	return Config{
		Index:          "questions",
		Timeout:        5 * time.Second,
		HealthCacheTTL: 3 * time.Second,
		MaxCandidates:  10,
	}
}

// ConfigFromEnv reads QUESTGEN_SEARCH_* variables over DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("QUESTGEN_SEARCH_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("QUESTGEN_SEARCH_INDEX"); v != "" {
		cfg.Index = v
	}
	if v := os.Getenv("QUESTGEN_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool {
	return c.BaseURL != ""
}
