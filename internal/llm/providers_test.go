package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

var answerSchema = &Schema{
	Name: "provider-answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{"type": "string"},
			"answer":        map[string]any{"type": "string"},
		},
		"required": []any{"question_text", "answer"},
	},
}

// vendorStub serves every request with status and body, keeping the last
// request body for inspection.
type vendorStub struct {
	status int
	header http.Header
	body   any

	mu   sync.Mutex
	last []byte
}

func (v *vendorStub) lastBody() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

func (v *vendorStub) start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		v.mu.Lock()
		v.last = body
		v.mu.Unlock()
		for k, vals := range v.header {
			for _, val := range vals {
				w.Header().Add(k, val)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(v.status)
		_ = json.NewEncoder(w).Encode(v.body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_01",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 120, "output_tokens": 40},
	}
}

func anthropicFailure(kind string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
}

func newAnthropicStub(t *testing.T, stub *vendorStub) *AnthropicProvider {
	t.Helper()
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test", Model: "claude-haiku", BaseURL: stub.start(t)})
	require.NoError(t, err)
	return p
}

func TestAnthropic_StructuredAnswer(t *testing.T) {
	stub := &vendorStub{status: http.StatusOK, body: anthropicMessage(`{"question_text":"What is 7 + 5?","answer":"12"}`, "end_turn")}
	p := newAnthropicStub(t, stub)

	ctx := WithSession(context.Background(), "sess-42")
	resp, err := p.Generate(ctx, Request{
		System:    "You write grade 3 math questions.",
		Messages:  []Message{{Role: RoleUser, Content: "One addition question."}},
		Schema:    answerSchema,
		MaxTokens: 512,
	})
	require.NoError(t, err)

	assert.Equal(t, "12", gjson.GetBytes(resp.Content, "answer").String())
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 40, TotalTokens: 160}, resp.Usage)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)

	assert.Equal(t, "sess-42", gjson.GetBytes(stub.lastBody(), "metadata.user_id").String())
	assert.Equal(t, "claude-haiku-4-5-20251001", gjson.GetBytes(stub.lastBody(), "model").String())
}

func TestAnthropic_TruncatedStructuredOutput(t *testing.T) {
	stub := &vendorStub{status: http.StatusOK, body: anthropicMessage(`{"question_text":"What is`, "max_tokens")}
	p := newAnthropicStub(t, stub)

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "q"}},
		Schema:    answerSchema,
		MaxTokens: 8,
	})
	var trunc *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, `{"question_text":"What is`, string(trunc.Content))
}

func TestAnthropic_SchemaMismatch(t *testing.T) {
	stub := &vendorStub{status: http.StatusOK, body: anthropicMessage(`{"question_text":"What is 7 + 5?"}`, "end_turn")}
	p := newAnthropicStub(t, stub)

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "q"}},
		Schema:    answerSchema,
		MaxTokens: 512,
	})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropic_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		check  func(t *testing.T, err error)
	}{
		{"rate limited", http.StatusTooManyRequests, http.Header{"Retry-After": {"7"}}, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			require.ErrorAs(t, err, &rl)
			assert.Equal(t, ProviderAnthropic, rl.Provider)
			assert.Equal(t, 7*time.Second, rl.RetryAfter)
		}},
		{"bad key", http.StatusUnauthorized, nil, func(t *testing.T, err error) {
			var auth *ErrAuthentication
			require.ErrorAs(t, err, &auth)
			assert.Equal(t, http.StatusUnauthorized, auth.StatusCode)
		}},
		{"overloaded", http.StatusServiceUnavailable, nil, func(t *testing.T, err error) {
			var unav *ErrProviderUnavailable
			require.ErrorAs(t, err, &unav)
			assert.Equal(t, http.StatusServiceUnavailable, unav.StatusCode)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &vendorStub{status: tt.status, header: tt.header, body: anthropicFailure("api_error")}
			p := newAnthropicStub(t, stub)
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "q"}},
				MaxTokens: 64,
			})
			tt.check(t, err)
		})
	}
}

func TestAnthropic_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"})
	assert.Error(t, err)
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1760000000,
		"model":   "gpt-4o-mini-2024-07-18",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 90, "completion_tokens": 30, "total_tokens": 120},
	}
}

func newOpenAIStub(t *testing.T, stub *vendorStub) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: stub.start(t) + "/v1"})
	require.NoError(t, err)
	return p
}

func TestOpenAI_StructuredAnswer(t *testing.T) {
	stub := &vendorStub{status: http.StatusOK, body: chatCompletion(`{"question_text":"What is 9 - 4?","answer":"5"}`, "stop")}
	p := newOpenAIStub(t, stub)

	ctx := WithSession(context.Background(), "sess-7")
	resp, err := p.Generate(ctx, Request{
		System:    "You write math questions.",
		Messages:  []Message{{Role: RoleUser, Content: "One subtraction question."}},
		Schema:    answerSchema,
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "5", gjson.GetBytes(resp.Content, "answer").String())
	assert.Equal(t, 120, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)

	assert.Equal(t, "sess-7", gjson.GetBytes(stub.lastBody(), "user").String())
	assert.Equal(t, "system", gjson.GetBytes(stub.lastBody(), "messages.0.role").String())
	assert.Equal(t, "json_schema", gjson.GetBytes(stub.lastBody(), "response_format.type").String())
	assert.Equal(t, "provider-answer", gjson.GetBytes(stub.lastBody(), "response_format.json_schema.name").String())
}

func TestOpenAI_LengthFinish(t *testing.T) {
	stub := &vendorStub{status: http.StatusOK, body: chatCompletion(`{"question_text":`, "length")}
	p := newOpenAIStub(t, stub)

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "q"}},
		Schema:   answerSchema,
	})
	var trunc *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &trunc)

	// Without a schema a cut-off answer is still usable text.
	p = newOpenAIStub(t, &vendorStub{status: http.StatusOK, body: chatCompletion("Seven plus", "length")})
	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}})
	require.NoError(t, err)
	assert.Equal(t, "max_tokens", resp.StopReason)
}

func TestOpenAI_ErrorStatuses(t *testing.T) {
	failure := map[string]any{"error": map[string]any{"message": "nope", "type": "invalid_request_error"}}
	tests := []struct {
		status int
		target any
	}{
		{http.StatusTooManyRequests, new(*ErrRateLimit)},
		{http.StatusForbidden, new(*ErrAuthentication)},
		{http.StatusBadGateway, new(*ErrProviderUnavailable)},
		{http.StatusBadRequest, new(*ErrProviderUnavailable)},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			stub := &vendorStub{status: tt.status, body: failure}
			p := newOpenAIStub(t, stub)
			_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}})
			assert.ErrorAs(t, err, tt.target)
		})
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	body := chatCompletion("", "stop")
	body["choices"] = []any{}
	p := newOpenAIStub(t, &vendorStub{status: http.StatusOK, body: body})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestOpenRouter_UsesCompatibleClient(t *testing.T) {
	stub := &vendorStub{status: http.StatusTooManyRequests, body: map[string]any{"error": map[string]any{"message": "slow down"}}}
	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-001",
		BaseURL: stub.start(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-001", p.ModelID())

	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "q"}}})
	var rl *ErrRateLimit
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, ProviderOpenRouter, rl.Provider)

	_, err = NewOpenRouterProvider(OpenRouterConfig{Model: "x"})
	assert.ErrorContains(t, err, "openrouter API key is required")
}

func TestModelAliases(t *testing.T) {
	tests := []struct {
		models map[string]string
		in     string
		want   string
	}{
		{anthropicModels, "claude-sonnet", "claude-sonnet-4-20250514"},
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{openaiModels, "gpt-4o-mini", "gpt-4o-mini"},
		{geminiModels, "gemini-flash", "gemini-2.0-flash"},
		{geminiModels, "gemini-2.5-pro", "gemini-2.5-pro"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveModel(tt.in, tt.models), tt.in)
	}
}

func TestGeminiSchemaConversion(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{"type": "string", "description": "stem"},
			"difficulty":    map[string]any{"type": "integer"},
			"format":        map[string]any{"type": "string", "enum": []any{"MULTIPLE_CHOICE", "TRUE_FALSE"}},
			"options": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1.0},
		},
		"required": []any{"question_text", "difficulty"},
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Len(t, s.Properties, 5)
	assert.Equal(t, "stem", s.Properties["question_text"].Description)
	assert.Equal(t, genai.TypeInteger, s.Properties["difficulty"].Type)
	assert.Equal(t, []string{"MULTIPLE_CHOICE", "TRUE_FALSE"}, s.Properties["format"].Enum)
	assert.Equal(t, genai.TypeArray, s.Properties["options"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["options"].Items.Type)
	assert.Equal(t, genai.TypeNumber, s.Properties["confidence"].Type)
	assert.Equal(t, []string{"question_text", "difficulty"}, s.Required)
	assert.Equal(t, []string{"question_text", "difficulty", "confidence", "format", "options"}, s.PropertyOrdering)

	conf := s.Properties["confidence"]
	require.NotNil(t, conf.Minimum)
	require.NotNil(t, conf.Maximum)
	assert.Equal(t, 0.0, *conf.Minimum)
	assert.Equal(t, 1.0, *conf.Maximum)
	assert.Nil(t, s.Properties["difficulty"].Minimum)

	assert.Equal(t, genai.TypeString, geminiSchema(map[string]any{"type": "null"}).Type)
}

func TestGeminiErrorClassification(t *testing.T) {
	var rl *ErrRateLimit
	assert.ErrorAs(t, geminiError(&genai.APIError{Code: http.StatusTooManyRequests}), &rl)

	var auth *ErrAuthentication
	assert.ErrorAs(t, geminiError(genai.APIError{Code: http.StatusForbidden}), &auth)

	var unav *ErrProviderUnavailable
	require.ErrorAs(t, geminiError(io.ErrUnexpectedEOF), &unav)
	assert.Zero(t, unav.StatusCode)
	assert.ErrorIs(t, unav, io.ErrUnexpectedEOF)
}
