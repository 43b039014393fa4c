package llm

import (
	"context"
	"encoding/json"
)

// Provider is a chat model that can be asked for one structured answer.
// Vendor adapters implement it directly; RetryProvider, TimeoutProvider
// and LoggingProvider wrap another Provider.
type Provider interface {
	// Generate returns the model's answer to req. When req.Schema is set the
	// answer has been checked against it; otherwise Content is raw text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, e.g. "gpt-4o-mini".
	ModelID() string
}

// Request is a single-turn (or short multi-turn) prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema switches the vendor into JSON mode and is used to validate the
	// answer. Nil asks for free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0,1]. Zero leaves the vendor default in place for
	// providers that distinguish "unset".
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema document. Name doubles as the cache key for
// the compiled validator and as the response_format name for OpenAI, so it
// must be unique per shape.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is one model answer.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model as reported by the vendor, which may be more specific than
	// ModelID (a dated snapshot, say).
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
