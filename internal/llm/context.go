package llm

import "context"

type (
	purposeKey struct{}
	sessionKey struct{}
)

// WithPurpose labels calls made under ctx, e.g. "question-gen". The label
// ends up in the audit log and drives the per-purpose usage report.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

// WithSession ties calls made under ctx to one generation session.
// Adapters also forward it to the vendor as the end-user tag.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
