package store

import (
	"database/sql"
	"errors"
	"time"
)

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

type scanner interface{ Scan(dest ...any) error }

const paperColumns = "id, paper_id, title, authors_json, abstract, url, pdf_url, published_date, source, local_path, created_at, updated_at"

func scanPaper(row scanner) (*Paper, error) {
	var (
		id            int64
		paperID       string
		title         string
		authorsJSON   sql.NullString
		abstract      sql.NullString
		url           sql.NullString
		pdfURL        sql.NullString
		publishedDate sql.NullString
		source        sql.NullString
		localPath     sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := row.Scan(
		&id,
		&paperID,
		&title,
		&authorsJSON,
		&abstract,
		&url,
		&pdfURL,
		&publishedDate,
		&source,
		&localPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	paper := &Paper{
		ID:            id,
		PaperID:       paperID,
		Title:         title,
		Authors:       unmarshalAuthors(authorsJSON.String),
		Abstract:      abstract.String,
		URL:           url.String,
		PDFURL:        pdfURL.String,
		PublishedDate: publishedDate.String,
		Source:        source.String,
		LocalPath:     localPath.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		paper.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		paper.UpdatedAt = updated
	}
	return paper, nil
}

const videoColumns = "id, paper_id, video_path, duration_seconds, slide_count, status, error_message, storage_key, storage_url, created_at, updated_at"

func scanVideo(row scanner) (*Video, error) {
	var (
		id         int64
		paperID    string
		videoPath  sql.NullString
		duration   sql.NullFloat64
		slideCount sql.NullInt64
		statusStr  string
		errMsg     sql.NullString
		storageKey sql.NullString
		storageURL sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := row.Scan(
		&id,
		&paperID,
		&videoPath,
		&duration,
		&slideCount,
		&statusStr,
		&errMsg,
		&storageKey,
		&storageURL,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	video := &Video{
		ID:              id,
		PaperID:         paperID,
		VideoPath:       videoPath.String,
		DurationSeconds: duration.Float64,
		SlideCount:      int(slideCount.Int64),
		Status:          VideoStatus(statusStr),
		ErrorMessage:    errMsg.String,
		StorageKey:      storageKey.String,
		StorageURL:      storageURL.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		video.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		video.UpdatedAt = updated
	}
	return video, nil
}
