package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/models"
	"taskboard/internal/storage/files"
)

// handleUploadAttachment accepts one multipart file under the "file" field,
// stores it on disk under a generated name and records the metadata row.
func (s *Server) handleUploadAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, fmt.Errorf("%w: no file uploaded", errValidation))
		return
	}
	if !files.Allowed(header.Filename, header.Header.Get("Content-Type")) {
		s.respondError(c, files.ErrUnsupportedType)
		return
	}
	if header.Size > files.MaxUploadSize {
		s.respondError(c, files.ErrTooLarge)
		return
	}

	src, err := header.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer src.Close()

	stored, size, err := s.files.Save(header.Filename, src)
	if err != nil {
		s.respondError(c, err)
		return
	}

	meta, err := s.store.AddAttachment(c.Request.Context(), models.Attachment{
		TaskID:       taskID,
		Filename:     stored,
		OriginalName: header.Filename,
		FileSize:     size,
		UploadedBy:   currentUser(c),
	})
	if err != nil {
		// Keep disk and metadata consistent when the row insert fails.
		_ = s.files.Remove(stored)
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meta)
}

// handleListAttachments lists a task's files newest first.
func (s *Server) handleListAttachments(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	attachments, err := s.store.TaskAttachments(c.Request.Context(), taskID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}

// handleDownloadAttachment streams the stored file under its original
// name. A metadata row whose file is gone from disk is a server-side
// inconsistency and is reported apart from a plain missing row.
func (s *Server) handleDownloadAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}

	meta, err := s.store.AttachmentByID(c.Request.Context(), taskID, fileID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !s.files.Exists(meta.Filename) {
		s.logger.Error("attachment row without file on disk",
			slog.Int64("attachment", meta.ID), slog.String("filename", meta.Filename))
		c.JSON(http.StatusNotFound, gin.H{"error": "file missing from storage"})
		return
	}

	c.FileAttachment(s.files.Path(meta.Filename), meta.OriginalName)
}

// handleDeleteAttachment removes the file best-effort, then the row.
func (s *Server) handleDeleteAttachment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	meta, err := s.store.AttachmentByID(ctx, taskID, fileID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.files.Remove(meta.Filename); err != nil {
		s.logger.Warn("attachment file not removed", "filename", meta.Filename, "error", err)
	}
	if err := s.store.DeleteAttachment(ctx, meta.ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attachment deleted"})
}
