package queue

import (
	"context"
	"errors"
	"fmt"
)

// Stats counts items per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	stats, err := withBusyRetry(ctx, func(ctx context.Context) (map[Status]int, error) {
		rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := make(map[Status]int)
		for rows.Next() {
			var (
				status Status
				n      int
			)
			if err := rows.Scan(&status, &n); err != nil {
				return nil, err
			}
			out[status] = n
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}

// Health folds Stats into the lifecycle buckets shown by status output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	return summarize(stats), nil
}

func summarize(stats map[Status]int) HealthSummary {
	var h HealthSummary
	for status, n := range stats {
		h.Total += n
		switch {
		case status == StatusPending:
			h.Pending += n
		case status == StatusFailed:
			h.Failed += n
		case status == StatusCompleted:
			h.Completed += n
		case IsProcessingStatus(status):
			h.Processing += n
		}
	}
	return h
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("queue database unavailable")
	}
	return s.db.PingContext(ctx)
}
