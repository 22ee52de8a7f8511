package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskboard/internal/models"
)

// AddAttachment records the metadata row of a stored file.
func (s *Store) AddAttachment(ctx context.Context, a models.Attachment) (models.Attachment, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO task_attachments(task_id, filename, original_name, file_size, uploaded_by)
        VALUES(?, ?, ?, ?, ?)`,
		a.TaskID, a.Filename, a.OriginalName, a.FileSize, a.UploadedBy)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("attachment id: %w", err)
	}
	return s.AttachmentByID(ctx, a.TaskID, id)
}

// AttachmentByID fetches one attachment, scoped to its task. A row that
// exists under a different task is reported as ErrNotFound.
func (s *Store) AttachmentByID(ctx context.Context, taskID, id int64) (models.Attachment, error) {
	var a models.Attachment
	err := s.db.QueryRowContext(ctx, `
        SELECT id, task_id, filename, original_name, file_size, uploaded_by, uploaded_at
        FROM task_attachments WHERE id = ? AND task_id = ?`, id, taskID).
		Scan(&a.ID, &a.TaskID, &a.Filename, &a.OriginalName, &a.FileSize, &a.UploadedBy, &a.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Attachment{}, fmt.Errorf("attachment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

// TaskAttachments lists a task's files newest first, with the uploader's
// display name resolved.
func (s *Store) TaskAttachments(ctx context.Context, taskID int64) ([]models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT ta.id, ta.task_id, ta.filename, ta.original_name, ta.file_size, ta.uploaded_by, ta.uploaded_at, u.name
        FROM task_attachments ta
        LEFT JOIN users u ON u.id = ta.uploaded_by
        WHERE ta.task_id = ?
        ORDER BY ta.uploaded_at DESC, ta.id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		var uploader sql.NullString
		if err := rows.Scan(&a.ID, &a.TaskID, &a.Filename, &a.OriginalName, &a.FileSize,
			&a.UploadedBy, &a.UploadedAt, &uploader); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.UploaderName = uploader.String
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// TaskAttachmentFilenames returns the stored filenames of a task's files,
// for best-effort disk cleanup before the rows go away.
func (s *Store) TaskAttachmentFilenames(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename FROM task_attachments WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteAttachment removes a metadata row.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_attachments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
