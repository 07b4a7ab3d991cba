package api

import (
	"cmp"
	"slices"
	"time"
)

// SortQueueItemsNewestFirst returns a copy ordered by CreatedAt descending,
// higher IDs first on ties.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b QueueItem) int {
		if c := ParseQueueTime(b.CreatedAt).Compare(ParseQueueTime(a.CreatedAt)); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return sorted
}

// ParseQueueTime reads an RFC 3339 timestamp; anything else is the zero time.
func ParseQueueTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
