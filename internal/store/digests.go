package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpsertSummary stores or replaces the generated summary for a paper.
func (s *Store) UpsertSummary(ctx context.Context, paperID, content string) (*Summary, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO summaries (paper_id, content, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(paper_id) DO UPDATE SET
            content = excluded.content,
            updated_at = excluded.updated_at`,
		paperID,
		content,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert summary: %w", err)
	}
	return s.GetSummary(ctx, paperID)
}

// GetSummary fetches a summary by paper identifier. Returns nil when absent.
func (s *Store) GetSummary(ctx context.Context, paperID string) (*Summary, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, paper_id, content, created_at, updated_at FROM summaries WHERE paper_id = ?`,
		paperID,
	)
	var (
		summary    Summary
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	err := row.Scan(&summary.ID, &summary.PaperID, &summary.Content, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		summary.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		summary.UpdatedAt = updated
	}
	return &summary, nil
}

// UpsertQuiz stores or replaces the generated quiz for a paper.
func (s *Store) UpsertQuiz(ctx context.Context, paperID string, questions []QuizQuestion) (*Quiz, error) {
	data, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO quizzes (paper_id, questions_json, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(paper_id) DO UPDATE SET
            questions_json = excluded.questions_json,
            updated_at = excluded.updated_at`,
		paperID,
		string(data),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert quiz: %w", err)
	}
	return s.GetQuiz(ctx, paperID)
}

// GetQuiz fetches a quiz by paper identifier. Returns nil when absent.
func (s *Store) GetQuiz(ctx context.Context, paperID string) (*Quiz, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, paper_id, questions_json, created_at, updated_at FROM quizzes WHERE paper_id = ?`,
		paperID,
	)
	var (
		quiz          Quiz
		questionsJSON string
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	err := row.Scan(&quiz.ID, &quiz.PaperID, &questionsJSON, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if err := json.Unmarshal([]byte(questionsJSON), &quiz.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		quiz.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		quiz.UpdatedAt = updated
	}
	return &quiz, nil
}
