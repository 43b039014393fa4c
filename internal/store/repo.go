package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	Purpose   string    // exact purpose match, LLM events only
	SessionID string    // exact session match, LLM events only
	UserID    string    // exact user match, sessions only
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// UsageByPurpose aggregates LLM calls per purpose label.
type UsageByPurpose struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// UsageByModel aggregates LLM calls per served model.
type UsageByModel struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}

// Session outcome values.
const (
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// SessionRecord summarizes one generation request.
type SessionRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time

	SessionID      string
	UserID         string
	Subject        string
	Category       string
	Grade          int
	Difficulty     string
	Format         string
	QuestionTypes  []string
	TotalQuestions int

	VectorRelevance   float64
	AgenticValidation float64
	Personalization   float64

	// FallbackTypes counts question types whose content came from the
	// template generator.
	FallbackTypes int
	Warnings      int
	Status        string
	DurationMs    int64
}

// SessionRepo records generation sessions.
type SessionRepo interface {
	AppendSession(ctx context.Context, rec SessionRecord) error
}
