package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertVideo inserts a video record or replaces the stored fields when a
// record for the paper already exists. The unique constraint on paper_id makes
// regeneration idempotent: repeated runs update the same row.
func (s *Store) UpsertVideo(ctx context.Context, video *Video) (*Video, error) {
	if video == nil {
		return nil, errors.New("video is nil")
	}
	if video.Status == "" {
		video.Status = StatusPending
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO videos (
            paper_id, video_path, duration_seconds, slide_count, status,
            error_message, storage_key, storage_url, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(paper_id) DO UPDATE SET
            video_path = excluded.video_path,
            duration_seconds = excluded.duration_seconds,
            slide_count = excluded.slide_count,
            status = excluded.status,
            error_message = excluded.error_message,
            storage_key = excluded.storage_key,
            storage_url = excluded.storage_url,
            updated_at = excluded.updated_at`,
		video.PaperID,
		nullableString(video.VideoPath),
		video.DurationSeconds,
		video.SlideCount,
		video.Status,
		nullableString(video.ErrorMessage),
		nullableString(video.StorageKey),
		nullableString(video.StorageURL),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert video: %w", err)
	}

	return s.GetVideo(ctx, video.PaperID)
}

// GetVideo fetches the video record for a paper. Returns nil when no record
// exists.
func (s *Store) GetVideo(ctx context.Context, paperID string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE paper_id = ?`, paperID)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// ListVideos returns video records filtered by status set (or all records when
// no status is provided), ordered by creation time.
func (s *Store) ListVideos(ctx context.Context, statuses ...VideoStatus) ([]*Video, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + videoColumns + ` FROM videos`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := make([]byte, 0, len(statuses)*2)
		args := make([]any, len(statuses))
		for i, status := range statuses {
			if i > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + string(placeholders) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// MarkVideoFailed records a failed generation attempt for a paper.
func (s *Store) MarkVideoFailed(ctx context.Context, paperID, message string) error {
	_, err := s.UpsertVideo(ctx, &Video{
		PaperID:      paperID,
		Status:       StatusFailed,
		ErrorMessage: message,
	})
	return err
}

// RemoveVideo deletes the video record for a paper.
func (s *Store) RemoveVideo(ctx context.Context, paperID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM videos WHERE paper_id = ?`, paperID)
	if err != nil {
		return false, fmt.Errorf("delete video: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
