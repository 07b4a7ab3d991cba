package api

import (
	"context"
	"errors"
	"strings"

	"podcaster/internal/queue"
)

// ErrNotFound reports a missing queue item.
var ErrNotFound = errors.New("podcast not found")

// ErrNotFailed reports a retry request for an item that has not failed.
var ErrNotFailed = errors.New("only failed podcasts can be retried")

// QueueStore abstracts the queue persistence interactions the API needs.
type QueueStore interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	GetByID(ctx context.Context, id int64) (*queue.Item, error)
	NewItem(ctx context.Context, kind queue.SourceKind, sourceRef, text string) (*queue.Item, error)
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

// QueueService exposes queue operations returning API DTOs.
type QueueService struct {
	store QueueStore
}

// NewQueueService constructs a QueueService around the provided store.
func NewQueueService(store QueueStore) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns queue items filtered by status, newest first.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueItem, error) {
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortQueueItemsNewestFirst(FromQueueItems(items)), nil
}

// Describe fetches a single queue item including its thought text.
func (s *QueueService) Describe(ctx context.Context, id int64) (QueueItem, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return QueueItem{}, err
	}
	if item == nil {
		return QueueItem{}, ErrNotFound
	}
	return FromQueueItem(item, true), nil
}

// Create enqueues text submitted over HTTP. A duplicate returns the existing
// item together with queue.ErrDuplicate.
func (s *QueueService) Create(ctx context.Context, text string) (QueueItem, error) {
	item, err := s.store.NewItem(ctx, queue.SourceAPI, "api", strings.TrimSpace(text))
	if item == nil {
		return QueueItem{}, err
	}
	return FromQueueItem(item, false), err
}

// Retry moves a failed item back to pending.
func (s *QueueService) Retry(ctx context.Context, id int64) (QueueItem, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return QueueItem{}, err
	}
	if item == nil {
		return QueueItem{}, ErrNotFound
	}
	if item.Status != queue.StatusFailed {
		return QueueItem{}, ErrNotFailed
	}
	if _, err := s.store.RetryFailed(ctx, id); err != nil {
		return QueueItem{}, err
	}
	return s.Describe(ctx, id)
}

// Remove deletes an item from the queue. Podcast folders stay on disk.
func (s *QueueService) Remove(ctx context.Context, id int64) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// Ping verifies the queue database.
func (s *QueueService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
