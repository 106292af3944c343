package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertAudioSummary stores or replaces the spoken summary for a paper.
func (s *Store) UpsertAudioSummary(ctx context.Context, audio *AudioSummary) (*AudioSummary, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO audio_summaries (paper_id, audio_path, duration_seconds, storage_key, storage_url, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(paper_id) DO UPDATE SET
            audio_path = excluded.audio_path,
            duration_seconds = excluded.duration_seconds,
            storage_key = excluded.storage_key,
            storage_url = excluded.storage_url,
            updated_at = excluded.updated_at`,
		audio.PaperID,
		nullableString(audio.AudioPath),
		audio.DurationSeconds,
		nullableString(audio.StorageKey),
		nullableString(audio.StorageURL),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert audio summary: %w", err)
	}
	return s.GetAudioSummary(ctx, audio.PaperID)
}

// GetAudioSummary fetches the spoken summary by paper identifier. Returns
// nil when absent.
func (s *Store) GetAudioSummary(ctx context.Context, paperID string) (*AudioSummary, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, paper_id, audio_path, duration_seconds, storage_key, storage_url, created_at, updated_at
         FROM audio_summaries WHERE paper_id = ?`,
		paperID,
	)
	var (
		audio      AudioSummary
		audioPath  sql.NullString
		storageKey sql.NullString
		storageURL sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	err := row.Scan(&audio.ID, &audio.PaperID, &audioPath, &audio.DurationSeconds,
		&storageKey, &storageURL, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audio summary: %w", err)
	}
	audio.AudioPath = audioPath.String
	audio.StorageKey = storageKey.String
	audio.StorageURL = storageURL.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		audio.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		audio.UpdatedAt = updated
	}
	return &audio, nil
}
