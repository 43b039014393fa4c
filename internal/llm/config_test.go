package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// clearEnv blanks every variable ConfigFromEnv reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"QUESTGEN_LLM_PROVIDER", "QUESTGEN_LLM_TIMEOUT", "QUESTGEN_LLM_MAX_ATTEMPTS",
		"QUESTGEN_ANTHROPIC_API_KEY", "QUESTGEN_ANTHROPIC_MODEL", "QUESTGEN_ANTHROPIC_BASE_URL",
		"QUESTGEN_OPENAI_API_KEY", "QUESTGEN_OPENAI_MODEL", "QUESTGEN_OPENAI_BASE_URL",
		"QUESTGEN_GEMINI_API_KEY", "QUESTGEN_GEMINI_MODEL",
		"QUESTGEN_OPENROUTER_API_KEY", "QUESTGEN_OPENROUTER_MODEL", "QUESTGEN_OPENROUTER_BASE_URL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_DefaultsToTemplate(t *testing.T) {
	clearEnv(t)

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderTemplate, cfg.Provider)
	assert.False(t, cfg.UsesLLM())
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestConfigFromEnv_ExplicitProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUESTGEN_LLM_PROVIDER", "openai")
	t.Setenv("QUESTGEN_OPENAI_API_KEY", "sk-test")
	t.Setenv("QUESTGEN_OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("QUESTGEN_OPENAI_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("QUESTGEN_LLM_TIMEOUT", "10s")
	t.Setenv("QUESTGEN_LLM_MAX_ATTEMPTS", "5")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.True(t, cfg.UsesLLM())
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
	assert.Equal(t, "http://localhost:1234/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestConfigFromEnv_IgnoresBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUESTGEN_LLM_TIMEOUT", "soon")
	t.Setenv("QUESTGEN_LLM_MAX_ATTEMPTS", "-2")

	cfg := ConfigFromEnv()
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestConfigFromEnv_DiscoversVendorKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg := ConfigFromEnv()
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant", cfg.Anthropic.APIKey)
}

func TestDiscoverConfig_Priority(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")

	cfg, ok := DiscoverConfig()
	assert.True(t, ok)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)

	clearEnv(t)
	_, ok = DiscoverConfig()
	assert.False(t, ok)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"template", Config{Provider: ProviderTemplate}, true},
		{"mock", Config{Provider: ProviderMock}, true},
		{"anthropic keyed", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, true},
		{"anthropic bare", Config{Provider: ProviderAnthropic}, false},
		{"openai bare", Config{Provider: ProviderOpenAI}, false},
		{"gemini bare", Config{Provider: ProviderGemini}, false},
		{"openrouter keyed", Config{Provider: ProviderOpenRouter, OpenRouter: OpenRouterConfig{APIKey: "k"}}, true},
		{"openrouter bare", Config{Provider: ProviderOpenRouter}, false},
		{"unknown", Config{Provider: "llama.cpp"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestConfigFromEnv_AnthropicBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUESTGEN_LLM_PROVIDER", ProviderAnthropic)
	t.Setenv("QUESTGEN_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("QUESTGEN_ANTHROPIC_BASE_URL", "http://gateway.internal:8081")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://gateway.internal:8081", cfg.Anthropic.BaseURL)
	assert.NoError(t, cfg.Validate())
}
