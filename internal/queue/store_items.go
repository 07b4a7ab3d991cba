package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// claimAttempts bounds how often ClaimNext retries after losing a race.
const claimAttempts = 5

// NewItem enqueues a thought at the start of the pipeline. When the same text
// (after whitespace normalization) is already queued the existing item is
// returned together with ErrDuplicate.
func (s *Store) NewItem(ctx context.Context, kind SourceKind, sourceRef, text string) (*Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	fp := Fingerprint(text)
	existing, err := s.FindByFingerprint(ctx, fp)
	switch {
	case err != nil:
		return nil, err
	case existing != nil:
		return existing, ErrDuplicate
	}

	now := nowString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO queue_items (source_kind, source_ref, input_text, fingerprint, status, progress_percent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		kind, nullableString(sourceRef), text, fp, StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. A missing item yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	item, err := s.queryItem(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// FindByFingerprint returns the item queued with the given text fingerprint.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*Item, error) {
	if fingerprint == "" {
		return nil, nil
	}
	item, err := s.queryItem(ctx, "fingerprint = ?", fingerprint)
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	return item, nil
}

// Update writes every mutable column of item and stamps UpdatedAt.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("update item: nil item")
	}
	item.UpdatedAt = time.Now().UTC()
	announced := 0
	if item.Announced {
		announced = 1
	}
	sets := []struct {
		column string
		value  any
	}{
		{"source_ref", nullableString(item.SourceRef)},
		{"title", nullableString(item.Title)},
		{"topic", nullableString(item.Topic)},
		{"language", nullableString(item.Language)},
		{"status", item.Status},
		{"progress_stage", nullableString(item.ProgressStage)},
		{"progress_percent", item.ProgressPercent},
		{"progress_message", nullableString(item.ProgressMessage)},
		{"error_message", nullableString(item.ErrorMessage)},
		{"folder_path", nullableString(item.FolderPath)},
		{"audio_path", nullableString(item.AudioPath)},
		{"image_path", nullableString(item.ImagePath)},
		{"video_path", nullableString(item.VideoPath)},
		{"youtube_id", nullableString(item.YouTubeID)},
		{"youtube_url", nullableString(item.YouTubeURL)},
		{"announced", announced},
		{"updated_at", item.UpdatedAt.Format(time.RFC3339Nano)},
		{"last_heartbeat", nullableTime(item.LastHeartbeat)},
	}
	assignments := make([]string, len(sets))
	args := make([]any, 0, len(sets)+1)
	for i, set := range sets {
		assignments[i] = set.column + " = ?"
		args = append(args, set.value)
	}
	args = append(args, item.ID)

	query := "UPDATE queue_items SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	if err := s.execWithoutResultRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}
	return nil
}

// List returns items oldest first, restricted to statuses when any are given.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		items []*Item
		err   error
	)
	if len(statuses) == 0 {
		items, err = s.queryItems(ctx, "")
	} else {
		items, err = s.queryItems(ctx, "status IN ("+makePlaceholders(len(statuses))+")", inArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return items, nil
}

// NextForStatuses returns the oldest item in any of statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	return s.queryItem(ctx, "status IN ("+makePlaceholders(len(statuses))+") ORDER BY created_at, id", inArgs(statuses)...)
}

// ClaimNext atomically moves the oldest item in one of the trigger statuses to
// the processing status and returns it. Concurrent workers never claim the
// same item: the UPDATE only succeeds while the status is unchanged.
func (s *Store) ClaimNext(ctx context.Context, processing Status, triggers ...Status) (*Item, error) {
	for range claimAttempts {
		item, err := s.NextForStatuses(ctx, triggers...)
		if err != nil || item == nil {
			return item, err
		}
		now := nowString()
		res, err := s.execWithRetry(ctx,
			`UPDATE queue_items SET status = ?, last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
			processing, now, now, item.ID, item.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("claim item %d: %w", item.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("claim item %d: %w", item.ID, err)
		} else if n == 1 {
			return s.GetByID(ctx, item.ID)
		}
	}
	return nil, nil
}

// Remove deletes an item and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	n, err := s.deleteWhere(ctx, "id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete item %d: %w", id, err)
	}
	return n > 0, nil
}

// Clear removes every item.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	n, err := s.deleteWhere(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return n, nil
}

// ClearCompleted removes completed items.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	n, err := s.deleteWhere(ctx, "status = ?", StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return n, nil
}

// ClearFailed removes failed items.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	n, err := s.deleteWhere(ctx, "status = ?", StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return n, nil
}
