package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertPaper inserts a paper or refreshes the stored record when the paper
// identifier already exists. The paper's database ID and timestamps are
// populated on return.
func (s *Store) UpsertPaper(ctx context.Context, paper *Paper) (*Paper, error) {
	if paper == nil {
		return nil, errors.New("paper is nil")
	}
	authorsJSON, err := marshalAuthors(paper.Authors)
	if err != nil {
		return nil, fmt.Errorf("marshal authors: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO papers (
            paper_id, title, authors_json, abstract, url, pdf_url,
            published_date, source, local_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(paper_id) DO UPDATE SET
            title = excluded.title,
            authors_json = excluded.authors_json,
            abstract = excluded.abstract,
            url = excluded.url,
            pdf_url = excluded.pdf_url,
            published_date = excluded.published_date,
            source = excluded.source,
            local_path = CASE WHEN excluded.local_path IS NOT NULL THEN excluded.local_path ELSE papers.local_path END,
            updated_at = excluded.updated_at`,
		paper.PaperID,
		paper.Title,
		authorsJSON,
		nullableString(paper.Abstract),
		nullableString(paper.URL),
		nullableString(paper.PDFURL),
		nullableString(paper.PublishedDate),
		nullableString(paper.Source),
		nullableString(paper.LocalPath),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert paper: %w", err)
	}

	return s.GetPaper(ctx, paper.PaperID)
}

// GetPaper fetches a paper by its external identifier. Returns nil when the
// paper is not known.
func (s *Store) GetPaper(ctx context.Context, paperID string) (*Paper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE paper_id = ?`, paperID)
	paper, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return paper, nil
}

// ListPapers returns all known papers ordered by creation time.
func (s *Store) ListPapers(ctx context.Context) ([]*Paper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+paperColumns+` FROM papers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var papers []*Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}

// SetPaperLocalPath records where a paper's PDF was downloaded.
func (s *Store) SetPaperLocalPath(ctx context.Context, paperID, localPath string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE papers SET local_path = ?, updated_at = ? WHERE paper_id = ?`,
		nullableString(localPath),
		timestamp,
		paperID,
	)
	if err != nil {
		return fmt.Errorf("set local path: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("paper %s not found", paperID)
	}
	return nil
}

// RemovePaper deletes a paper and its dependent records.
func (s *Store) RemovePaper(ctx context.Context, paperID string) (bool, error) {
	for _, table := range []string{"videos", "summaries", "audio_summaries", "quizzes"} {
		if _, err := s.execWithRetry(ctx, `DELETE FROM `+table+` WHERE paper_id = ?`, paperID); err != nil {
			return false, fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM papers WHERE paper_id = ?`, paperID)
	if err != nil {
		return false, fmt.Errorf("delete paper: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
