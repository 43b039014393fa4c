package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

const tableSequence = "audit_sequence"

// auditSequence numbers rows across both audit tables so a session and
// the model calls it made sort into one timeline.
type auditSequence struct {
	mu sync.Mutex
	db *sql.DB
}

// Next reserves one sequence number. The row is created by migrate.
func (a *auditSequence) Next(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int64
	row := a.db.QueryRowContext(ctx,
		`UPDATE `+tableSequence+` SET value = value + 1 WHERE name = 'audit' RETURNING value`)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("reserve sequence: %w", err)
	}
	return n, nil
}
