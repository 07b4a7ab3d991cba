package queue

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var itemColumns = strings.Join([]string{
	"id", "source_kind", "source_ref", "input_text", "fingerprint",
	"title", "topic", "language", "status",
	"progress_stage", "progress_percent", "progress_message", "error_message",
	"folder_path", "audio_path", "image_path", "video_path",
	"youtube_id", "youtube_url", "announced",
	"created_at", "updated_at", "last_heartbeat",
}, ", ")

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one row selected with itemColumns. Nullable text columns
// come back as empty strings.
func scanItem(row rowScanner) (*Item, error) {
	var (
		item                           Item
		kind, status                   string
		ref, title, topic, language    sql.Null[string]
		stage, message, errMsg, folder sql.Null[string]
		audio, image, video            sql.Null[string]
		ytID, ytURL                    sql.Null[string]
		percent                        sql.Null[float64]
		announced                      sql.Null[int64]
		created, updated, heartbeat    sql.Null[string]
	)
	err := row.Scan(
		&item.ID, &kind, &ref, &item.InputText, &item.Fingerprint,
		&title, &topic, &language, &status,
		&stage, &percent, &message, &errMsg,
		&folder, &audio, &image, &video,
		&ytID, &ytURL, &announced,
		&created, &updated, &heartbeat,
	)
	if err != nil {
		return nil, err
	}

	item.SourceKind = SourceKind(kind)
	item.Status = Status(status)
	item.SourceRef = ref.V
	item.Title, item.Topic, item.Language = title.V, topic.V, language.V
	item.ProgressStage, item.ProgressPercent, item.ProgressMessage = stage.V, percent.V, message.V
	item.ErrorMessage = errMsg.V
	item.FolderPath, item.AudioPath, item.ImagePath, item.VideoPath = folder.V, audio.V, image.V, video.V
	item.YouTubeID, item.YouTubeURL = ytID.V, ytURL.V
	item.Announced = announced.V != 0
	item.CreatedAt, _ = parseTimeString(created.V)
	item.UpdatedAt, _ = parseTimeString(updated.V)
	if hb, err := parseTimeString(heartbeat.V); err == nil {
		item.LastHeartbeat = &hb
	}
	return &item, nil
}

// queryItem returns the first item matching where, or nil when none does.
func (s *Store) queryItem(ctx context.Context, where string, args ...any) (*Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM queue_items WHERE "+where+" LIMIT 1", args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func (s *Store) queryItems(ctx context.Context, where string, args ...any) ([]*Item, error) {
	query := "SELECT " + itemColumns + " FROM queue_items"
	if where != "" {
		query += " WHERE " + where
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// deleteWhere removes matching rows and reports how many went.
func (s *Store) deleteWhere(ctx context.Context, where string, args ...any) (int64, error) {
	query := "DELETE FROM queue_items"
	if where != "" {
		query += " WHERE " + where
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateTime, value)
}

// makePlaceholders returns "?, ?, ?" for n parameters.
func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func inArgs[T any](values []T) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
