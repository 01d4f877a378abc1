package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mailgo/mailgo-backend/internal/api/middleware"
	"github.com/mailgo/mailgo-backend/internal/api/response"
	"github.com/mailgo/mailgo-backend/internal/logger"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/storage"
	"github.com/mailgo/mailgo-backend/internal/validator"
)

// AttachmentHandler handles attachment upload and download. Content is
// uploaded before compose; the returned ref travels in the compose request.
type AttachmentHandler struct {
	messages repository.MessageRepository
	files    storage.AttachmentStorage
	events   *logger.EventLogger
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(messages repository.MessageRepository, files storage.AttachmentStorage, events *logger.EventLogger) *AttachmentHandler {
	return &AttachmentHandler{messages: messages, files: files, events: events}
}

// Upload handles POST /api/attachments
func (h *AttachmentHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}

	filename := validator.SanitizeFilename(fileHeader.Filename)

	if err := storage.ValidateUpload(filename, fileHeader.Size); err != nil {
		if h.events != nil {
			h.events.BlockedFileUpload(c.RealIP(), filename, err.Error())
		}
		return response.BadRequest(c, err.Error())
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.InternalError(c, "failed to read upload")
	}
	defer src.Close()

	url, size, err := h.files.Save(filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalError(c, "failed to store attachment")
	}

	return response.Created(c, models.AttachmentRef{
		StorageURL:  url,
		Filename:    filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   size,
	})
}

// Download handles GET /api/attachments/:id/download
func (h *AttachmentHandler) Download(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid attachment ID")
	}

	attachment, err := h.messages.GetOwnedAttachment(c.Request().Context(), middleware.UserEmail(c), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "attachment not found")
		}
		return response.InternalError(c, "failed to get attachment")
	}

	content, err := h.files.Get(attachment.StorageURL)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return response.NotFound(c, "attachment content not found")
		}
		return response.InternalError(c, "failed to open attachment")
	}
	defer content.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	c.Response().Header().Set("Content-Type", contentType)
	c.Response().WriteHeader(200)

	_, err = io.Copy(c.Response().Writer, content)
	return err
}
