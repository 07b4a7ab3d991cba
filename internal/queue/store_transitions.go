package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// rollbackCase renders a CASE expression applying rb to the status column,
// its arguments, and the processing statuses it covers for the WHERE clause.
// An empty rb falls back to DefaultRollback.
func rollbackCase(rb Rollback) (string, []any, []any) {
	if len(rb) == 0 {
		rb = DefaultRollback()
	}
	var b strings.Builder
	b.WriteString("CASE status")
	var caseArgs, fromArgs []any
	for _, from := range allStatuses {
		to, ok := rb[from]
		if !ok || !IsProcessingStatus(from) {
			continue
		}
		b.WriteString(" WHEN ? THEN ?")
		caseArgs = append(caseArgs, from, to)
		fromArgs = append(fromArgs, from)
	}
	b.WriteString(" ELSE status END")
	return b.String(), caseArgs, fromArgs
}

// ResetStuckProcessing moves every item in a processing status to its rb
// target.
func (s *Store) ResetStuckProcessing(ctx context.Context, rb Rollback) (int64, error) {
	caseExpr, caseArgs, fromArgs := rollbackCase(rb)
	query := `UPDATE queue_items
        SET status = ` + caseExpr + `,
            progress_stage = 'Reset from stuck processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (` + makePlaceholders(len(fromArgs)) + `)`
	args := append(caseArgs, nowString())
	args = append(args, fromArgs...)
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := nowString()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing applies rb to processing items whose heartbeat is
// older than cutoff.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, rb Rollback, cutoff time.Time) (int64, error) {
	caseExpr, caseArgs, fromArgs := rollbackCase(rb)
	query := `UPDATE queue_items
        SET status = ` + caseExpr + `,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (` + makePlaceholders(len(fromArgs)) + `)
          AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`
	args := append(caseArgs, nowString())
	args = append(args, fromArgs...)
	args = append(args, cutoff.UTC().Format(time.RFC3339Nano))
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed items back to pending for reprocessing. Items keep
// their podcast folder so earlier artifacts can be reused.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE queue_items
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusPending, nowString(), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, inArgs(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
