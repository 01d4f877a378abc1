package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mailgo/mailgo-backend/internal/api/middleware"
	"github.com/mailgo/mailgo-backend/internal/api/response"
	"github.com/mailgo/mailgo-backend/internal/delivery"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/websocket"
)

// Deliverer is the compose surface of the delivery pipeline.
type Deliverer interface {
	Send(ctx context.Context, sender *models.User, req delivery.SendRequest) (*models.Message, error)
	Reply(ctx context.Context, sender *models.User, originalID uint, req delivery.ReplyRequest) (*models.Message, error)
	Forward(ctx context.Context, sender *models.User, originalID uint, req delivery.ForwardRequest) (*models.Message, error)
	SaveDraft(ctx context.Context, sender *models.User, req delivery.DraftRequest) (*models.Message, error)
	UpdateDraft(ctx context.Context, sender *models.User, draftID uint, req delivery.DraftRequest) (*models.Message, error)
}

// UpdateNotifier emits mutation events to a mailbox owner's sessions.
type UpdateNotifier interface {
	NotifyMessageUpdated(identity string, payload *websocket.MessageUpdatedPayload)
}

// listFolders are the folder views the list surface accepts. "starred" is a
// derived view over is_starred, not a physical folder.
var listFolders = map[string]bool{
	"inbox": true, "sent": true, "draft": true,
	"trash": true, "archive": true, "spam": true, "starred": true,
}

// moveTargets are the folders a user mutation may move a message into.
var moveTargets = map[models.Folder]bool{
	models.FolderInbox:   true,
	models.FolderTrash:   true,
	models.FolderArchive: true,
}

// EmailHandler handles email-related HTTP requests
type EmailHandler struct {
	pipeline Deliverer
	messages repository.MessageRepository
	labels   repository.LabelRepository
	notifier UpdateNotifier
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(pipeline Deliverer, messages repository.MessageRepository, labels repository.LabelRepository, notifier UpdateNotifier) *EmailHandler {
	return &EmailHandler{
		pipeline: pipeline,
		messages: messages,
		labels:   labels,
		notifier: notifier,
	}
}

func sender(c echo.Context) *models.User {
	return &models.User{
		ID:    middleware.UserID(c),
		Email: middleware.UserEmail(c),
	}
}

type composeRequest struct {
	Recipients  []string               `json:"recipients"`
	Cc          []string               `json:"cc"`
	Bcc         []string               `json:"bcc"`
	Subject     string                 `json:"subject"`
	Body        string                 `json:"body"`
	Attachments []models.AttachmentRef `json:"attachments"`
}

// Send handles POST /api/emails/send
func (h *EmailHandler) Send(c echo.Context) error {
	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	message, err := h.pipeline.Send(c.Request().Context(), sender(c), delivery.SendRequest{
		Recipients:  req.Recipients,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// Reply handles POST /api/emails/:id/reply
func (h *EmailHandler) Reply(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	message, err := h.pipeline.Reply(c.Request().Context(), sender(c), uint(id), delivery.ReplyRequest{
		Recipients:  req.Recipients,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// Forward handles POST /api/emails/:id/forward
func (h *EmailHandler) Forward(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	message, err := h.pipeline.Forward(c.Request().Context(), sender(c), uint(id), delivery.ForwardRequest{
		Recipients:  req.Recipients,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// SaveDraft handles POST /api/emails/draft
func (h *EmailHandler) SaveDraft(c echo.Context) error {
	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	draft, err := h.pipeline.SaveDraft(c.Request().Context(), sender(c), delivery.DraftRequest{
		Recipients:  req.Recipients,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, draft)
}

// UpdateDraft handles PUT /api/emails/draft/:id
func (h *EmailHandler) UpdateDraft(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid draft ID")
	}

	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	draft, err := h.pipeline.UpdateDraft(c.Request().Context(), sender(c), uint(id), delivery.DraftRequest{
		Recipients:  req.Recipients,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, draft)
}

// ListFolder handles GET /api/emails/folder/:folder
func (h *EmailHandler) ListFolder(c echo.Context) error {
	folder := strings.ToLower(c.Param("folder"))
	if !listFolders[folder] {
		return response.BadRequest(c, "unknown folder")
	}

	limit, offset := pagination(c)
	label := c.QueryParam("label")

	items, total, err := h.messages.ListFolder(c.Request().Context(), middleware.UserEmail(c), folder, label, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list emails")
	}

	return response.Paginated(c, items, total, limit, offset)
}

// Search handles GET /api/emails/search
func (h *EmailHandler) Search(c echo.Context) error {
	limit, offset := pagination(c)

	q := repository.SearchQuery{
		Keyword: c.QueryParam("keyword"),
		From:    c.QueryParam("from"),
		To:      c.QueryParam("to"),
		Label:   c.QueryParam("label"),
		Limit:   limit,
		Offset:  offset,
	}

	if v := c.QueryParam("has_attachment"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return response.BadRequest(c, "has_attachment must be a boolean")
		}
		q.HasAttachment = &b
	}
	if v := c.QueryParam("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return response.BadRequest(c, "start must be an RFC3339 timestamp")
		}
		q.Start = &ts
	}
	if v := c.QueryParam("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return response.BadRequest(c, "end must be an RFC3339 timestamp")
		}
		q.End = &ts
	}

	items, total, err := h.messages.Search(c.Request().Context(), middleware.UserEmail(c), q)
	if err != nil {
		return response.InternalError(c, "failed to search emails")
	}

	return response.Paginated(c, items, total, limit, offset)
}

// Get handles GET /api/emails/:id
func (h *EmailHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	owner := middleware.UserEmail(c)
	message, err := h.messages.GetOwned(c.Request().Context(), owner, uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to get email")
	}

	// Opening a message marks it read
	if !message.IsRead {
		_ = h.messages.SetRead(c.Request().Context(), owner, uint(id), true)
		message.IsRead = true
	}

	return response.Success(c, message)
}

type readRequest struct {
	IsRead bool `json:"is_read"`
}

// SetRead handles PATCH /api/emails/:id/read
func (h *EmailHandler) SetRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	var req readRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	owner := middleware.UserEmail(c)
	if err := h.messages.SetRead(c.Request().Context(), owner, uint(id), req.IsRead); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to update email")
	}

	if h.notifier != nil {
		h.notifier.NotifyMessageUpdated(owner, &websocket.MessageUpdatedPayload{
			MessageID: uint(id),
			IsRead:    &req.IsRead,
		})
	}

	return response.SuccessWithMessage(c, nil, "email updated")
}

type starRequest struct {
	IsStarred bool `json:"is_starred"`
}

// SetStarred handles PATCH /api/emails/:id/star
func (h *EmailHandler) SetStarred(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	var req starRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	owner := middleware.UserEmail(c)
	if err := h.messages.SetStarred(c.Request().Context(), owner, uint(id), req.IsStarred); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to update email")
	}

	if h.notifier != nil {
		h.notifier.NotifyMessageUpdated(owner, &websocket.MessageUpdatedPayload{
			MessageID: uint(id),
			IsStarred: &req.IsStarred,
		})
	}

	return response.SuccessWithMessage(c, nil, "email updated")
}

type moveRequest struct {
	Folder string `json:"folder"`
}

// MoveToFolder handles PATCH /api/emails/:id/folder
func (h *EmailHandler) MoveToFolder(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	folder := models.Folder(strings.ToLower(req.Folder))
	if !moveTargets[folder] {
		return response.BadRequest(c, "folder must be one of inbox, trash, archive")
	}

	owner := middleware.UserEmail(c)
	if err := h.messages.MoveToFolder(c.Request().Context(), owner, uint(id), folder); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to move email")
	}

	if h.notifier != nil {
		f := string(folder)
		h.notifier.NotifyMessageUpdated(owner, &websocket.MessageUpdatedPayload{
			MessageID: uint(id),
			Folder:    &f,
		})
	}

	return response.SuccessWithMessage(c, nil, "email moved")
}

type labelsRequest struct {
	Labels []string `json:"labels"`
}

// SetLabels handles POST /api/emails/:id/labels. The request replaces the
// message's label set; every name must be a label the owner has created.
func (h *EmailHandler) SetLabels(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}

	var req labelsRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	owner := middleware.UserEmail(c)
	for _, name := range req.Labels {
		if _, err := h.labels.GetByName(c.Request().Context(), owner, name); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return response.NotFound(c, "unknown label: "+name)
			}
			return response.InternalError(c, "failed to check label")
		}
	}

	if err := h.messages.SetLabels(c.Request().Context(), owner, uint(id), req.Labels); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to update labels")
	}

	if h.notifier != nil {
		labels := req.Labels
		h.notifier.NotifyMessageUpdated(owner, &websocket.MessageUpdatedPayload{
			MessageID: uint(id),
			Labels:    &labels,
		})
	}

	return response.SuccessWithMessage(c, nil, "labels updated")
}

// RemoveLabel handles DELETE /api/emails/:id/labels/:name
func (h *EmailHandler) RemoveLabel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid email ID")
	}
	name := c.Param("name")

	owner := middleware.UserEmail(c)
	message, err := h.messages.GetOwned(c.Request().Context(), owner, uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "email not found")
		}
		return response.InternalError(c, "failed to get email")
	}

	remaining := make([]string, 0, len(message.Labels))
	for _, l := range message.Labels {
		if l != name {
			remaining = append(remaining, l)
		}
	}

	if err := h.messages.SetLabels(c.Request().Context(), owner, uint(id), remaining); err != nil {
		return response.InternalError(c, "failed to update labels")
	}

	if h.notifier != nil {
		h.notifier.NotifyMessageUpdated(owner, &websocket.MessageUpdatedPayload{
			MessageID: uint(id),
			Labels:    &remaining,
		})
	}

	return response.SuccessWithMessage(c, nil, "label removed")
}

func pagination(c echo.Context) (int, int) {
	limit := 20
	offset := 0

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if limit > repository.MaxPageSize {
		limit = repository.MaxPageSize
	}

	return limit, offset
}
