package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const tableSessions = "generation_sessions"

var sessionColumns = []string{
	"id", "sequence", "timestamp_ms", "session_id", "user_id", "subject", "category",
	"grade", "difficulty", "format", "question_types", "total_questions",
	"vector_relevance", "agentic_validation", "personalization",
	"fallback_types", "warnings", "status", "duration_ms",
}

// SessionLog implements SessionRepo and the read side used by the CLI.
type SessionLog struct {
	db  *sql.DB
	seq *auditSequence
}

var _ SessionRepo = (*SessionLog)(nil)

func (r *SessionLog) AppendSession(ctx context.Context, rec SessionRecord) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	types, err := json.Marshal(rec.QuestionTypes)
	if err != nil {
		return fmt.Errorf("encode question types: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableSessions).
		Columns(sessionColumns[1:]...).
		Values(
			seqNum,
			ts.UnixMilli(),
			rec.SessionID,
			rec.UserID,
			rec.Subject,
			rec.Category,
			rec.Grade,
			rec.Difficulty,
			rec.Format,
			string(types),
			rec.TotalQuestions,
			rec.VectorRelevance,
			rec.AgenticValidation,
			rec.Personalization,
			rec.FallbackTypes,
			rec.Warnings,
			rec.Status,
			rec.DurationMs,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ListSessions returns sessions newest first, filtered by opts.
func (r *SessionLog) ListSessions(ctx context.Context, opts QueryOpts) ([]SessionRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		OrderBy(entsql.Desc("sequence"))

	preds := rangePredicates(opts)
	if opts.UserID != "" {
		preds = append(preds, entsql.EQ("user_id", opts.UserID))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetSession returns the session with the given session ID, or nil.
func (r *SessionLog) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	rec, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var ts int64
	var types string
	err := row.Scan(
		&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.UserID, &rec.Subject, &rec.Category,
		&rec.Grade, &rec.Difficulty, &rec.Format, &types, &rec.TotalQuestions,
		&rec.VectorRelevance, &rec.AgenticValidation, &rec.Personalization,
		&rec.FallbackTypes, &rec.Warnings, &rec.Status, &rec.DurationMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.Timestamp = time.UnixMilli(ts).UTC()
	if err := json.Unmarshal([]byte(types), &rec.QuestionTypes); err != nil {
		return nil, fmt.Errorf("decode question types: %w", err)
	}
	return &rec, nil
}
