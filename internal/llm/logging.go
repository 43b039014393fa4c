package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/store"
)

// vendor is implemented by the concrete adapters so audit rows can name
// the API that served a call separately from the model.
type vendor interface {
	Vendor() string
}

// LoggingProvider writes one audit event and one log line per call.
type LoggingProvider struct {
	inner  Provider
	events store.EventRepo
	log    *zap.Logger
}

// WithLogging wraps p. A nil repo skips the audit event; a nil logger
// discards log output.
func WithLogging(p Provider, events store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, events: events, log: logger.Named("llm")}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	ev := store.LLMRequestEventData{
		SessionID:   SessionFrom(ctx),
		Provider:    l.vendor(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   elapsed.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	switch {
	case resp != nil:
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	case err != nil:
		ev.ErrorMessage = err.Error()
		ev.ResponseBody = rejectedContent(err)
	}

	fields := []zap.Field{
		zap.String("purpose", ev.Purpose),
		zap.String("provider", ev.Provider),
		zap.String("model", ev.Model),
		zap.Duration("latency", elapsed),
	}
	if err != nil {
		l.log.Warn("llm request failed", append(fields, zap.Error(err))...)
	} else {
		l.log.Debug("llm request", append(fields,
			zap.Int("input_tokens", ev.InputTokens),
			zap.Int("output_tokens", ev.OutputTokens))...)
	}

	// The audit write outlives a cancelled request and never fails it.
	if l.events != nil {
		if werr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); werr != nil {
			l.log.Warn("failed to record llm request event", zap.Error(werr))
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) vendor() string {
	if v, ok := l.inner.(vendor); ok {
		return v.Vendor()
	}
	return l.inner.ModelID()
}

// rejectedContent returns what the model actually sent when the call failed
// on its output rather than on transport.
func rejectedContent(err error) string {
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return string(inv.Content)
	}
	var trunc *ErrMaxTokensExceeded
	if errors.As(err, &trunc) {
		return string(trunc.Content)
	}
	return ""
}

// transcript renders a request as "[role]" headed blocks for the audit log.
func transcript(req Request) string {
	var b strings.Builder
	block := func(head, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", head, body)
	}
	if req.System != "" {
		block("system", req.System)
	}
	for _, m := range req.Messages {
		block(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			block("schema: "+req.Schema.Name, string(def))
		}
	}
	return b.String()
}
