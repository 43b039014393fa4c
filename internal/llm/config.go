package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"

	// ProviderTemplate disables the LLM entirely; questions come from the
	// deterministic template generator.
	ProviderTemplate = "template"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries. Zero means
	// no bound beyond the caller's context.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string // Optional. Points at a proxy or gateway.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-001"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config that uses the template generator. A real
// provider is opted into through the environment.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderTemplate,
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-001",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// ConfigFromEnv builds a Config from QUESTGEN_* environment variables.
// When QUESTGEN_LLM_PROVIDER is unset, the standard vendor API key variables
// are probed (see DiscoverConfig); with none of those either, the template
// provider is used.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("QUESTGEN_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	} else if found, ok := DiscoverConfig(); ok {
		cfg = found
	}

	setString(&cfg.Anthropic.APIKey, "QUESTGEN_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "QUESTGEN_ANTHROPIC_MODEL")
	setString(&cfg.Anthropic.BaseURL, "QUESTGEN_ANTHROPIC_BASE_URL")

	setString(&cfg.OpenAI.APIKey, "QUESTGEN_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "QUESTGEN_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "QUESTGEN_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "QUESTGEN_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "QUESTGEN_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "QUESTGEN_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "QUESTGEN_OPENROUTER_MODEL")
	setString(&cfg.OpenRouter.BaseURL, "QUESTGEN_OPENROUTER_BASE_URL")

	if v := os.Getenv("QUESTGEN_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("QUESTGEN_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// UsesLLM reports whether the configuration selects a real (or mock) model
// rather than the template generator.
func (c Config) UsesLLM() bool {
	return c.Provider != ProviderTemplate
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("QUESTGEN_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("QUESTGEN_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("QUESTGEN_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("QUESTGEN_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock, ProviderTemplate:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
