package pg

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/opchan-dev/opchan/internal/domain"
	internal_errors "github.com/opchan-dev/opchan/internal/errors"
)

// CreateThread inserts the attachment metadata (if any) and the thread row in
// one transaction. The thread id comes from a BIGSERIAL sequence, so
// assignment is atomic with the durable commit: ids are strictly increasing,
// never reused, and a rolled-back insert can leave a gap but never a
// duplicate. Concurrent readers see the row only after commit.
func (s *Storage) CreateThread(title domain.ThreadTitle, message domain.MsgText, image *domain.Attachment) (domain.Thread, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return domain.Thread{}, &internal_errors.StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	var attachmentId sql.NullInt64
	if image != nil {
		err = tx.QueryRow(`
            INSERT INTO attachments (ref, thumb_ref, file_path, thumb_path, mime_type, size_bytes, width, height)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id
        `, image.Ref, image.ThumbRef, image.FilePath, image.ThumbPath,
			image.MimeType, image.SizeBytes, image.Width, image.Height,
		).Scan(&attachmentId.Int64)
		if err != nil {
			return domain.Thread{}, &internal_errors.StorageError{Op: "insert attachment", Err: err}
		}
		attachmentId.Valid = true
		image.Id = attachmentId.Int64
	}

	thread := domain.Thread{Title: title, Message: message, Image: image}
	err = tx.QueryRow(`
        INSERT INTO threads (title, message, attachment_id)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `, title, message, attachmentId).Scan(&thread.Id, &thread.CreatedAt)
	if err != nil {
		return domain.Thread{}, &internal_errors.StorageError{Op: "insert thread", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return domain.Thread{}, &internal_errors.StorageError{Op: "commit transaction", Err: err}
	}
	return thread, nil
}

func (s *Storage) ThreadCount() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM threads").Scan(&count); err != nil {
		return 0, &internal_errors.StorageError{Op: "count threads", Err: err}
	}
	return count, nil
}

// Threads returns the slice [offset, offset+limit) in canonical order:
// newest first (descending id). Out-of-range offsets yield an empty slice.
func (s *Storage) Threads(offset, limit int) ([]domain.Thread, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	rows, err := s.db.Query(`
        SELECT
            t.id, t.title, t.message, t.created_at,
            a.id, a.ref, a.thumb_ref, a.file_path, a.thumb_path,
            a.mime_type, a.size_bytes, a.width, a.height
        FROM threads t
        LEFT JOIN attachments a ON a.id = t.attachment_id
        ORDER BY t.id DESC
        OFFSET $1 LIMIT $2
    `, offset, limit)
	if err != nil {
		return nil, &internal_errors.StorageError{Op: "fetch threads", Err: err}
	}
	defer rows.Close()

	var threads []domain.Thread
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, &internal_errors.StorageError{Op: "scan thread", Err: err}
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, &internal_errors.StorageError{Op: "iterate threads", Err: err}
	}

	return threads, nil
}

func (s *Storage) GetThread(id domain.ThreadId) (domain.Thread, error) {
	row := s.db.QueryRow(`
        SELECT
            t.id, t.title, t.message, t.created_at,
            a.id, a.ref, a.thumb_ref, a.file_path, a.thumb_path,
            a.mime_type, a.size_bytes, a.width, a.height
        FROM threads t
        LEFT JOIN attachments a ON a.id = t.attachment_id
        WHERE t.id = $1
    `, id)

	thread, err := scanThread(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, &internal_errors.ErrorWithStatusCode{
				Message:    "Thread not found",
				StatusCode: http.StatusNotFound,
			}
		}
		return domain.Thread{}, &internal_errors.StorageError{Op: "fetch thread", Err: err}
	}
	return thread, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (domain.Thread, error) {
	var thread domain.Thread
	var attId sql.NullInt64
	var ref, thumbRef, filePath, thumbPath, mimeType sql.NullString
	var sizeBytes sql.NullInt64
	var width, height sql.NullInt32

	err := row.Scan(
		&thread.Id, &thread.Title, &thread.Message, &thread.CreatedAt,
		&attId, &ref, &thumbRef, &filePath, &thumbPath,
		&mimeType, &sizeBytes, &width, &height,
	)
	if err != nil {
		return domain.Thread{}, err
	}

	if attId.Valid {
		thread.Image = &domain.Attachment{
			Id:        attId.Int64,
			Ref:       ref.String,
			ThumbRef:  thumbRef.String,
			FilePath:  filePath.String,
			ThumbPath: thumbPath.String,
			MimeType:  mimeType.String,
			SizeBytes: sizeBytes.Int64,
			Width:     int(width.Int32),
			Height:    int(height.Int32),
		}
	}
	return thread, nil
}
