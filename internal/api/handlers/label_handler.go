package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mailgo/mailgo-backend/internal/api/middleware"
	"github.com/mailgo/mailgo-backend/internal/api/response"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/validator"
)

// LabelHandler handles label CRUD. Renames and deletes cascade over the
// owner's message copies so message rows never reference a dead label name.
type LabelHandler struct {
	labels   repository.LabelRepository
	messages repository.MessageRepository
}

// NewLabelHandler creates a new LabelHandler
func NewLabelHandler(labels repository.LabelRepository, messages repository.MessageRepository) *LabelHandler {
	return &LabelHandler{labels: labels, messages: messages}
}

type labelRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/labels
func (h *LabelHandler) Create(c echo.Context) error {
	var req labelRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validator.ValidateLabelName(req.Name); err != nil {
		return response.BadRequest(c, err.Error())
	}

	label := &models.Label{
		Owner: middleware.UserEmail(c),
		Name:  req.Name,
	}

	if err := h.labels.Create(c.Request().Context(), label); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "label already exists")
		}
		return response.InternalError(c, "failed to create label")
	}

	return response.Created(c, label)
}

// List handles GET /api/labels
func (h *LabelHandler) List(c echo.Context) error {
	labels, err := h.labels.ListByOwner(c.Request().Context(), middleware.UserEmail(c))
	if err != nil {
		return response.InternalError(c, "failed to list labels")
	}

	return response.Success(c, labels)
}

// Rename handles PUT /api/labels/:id
func (h *LabelHandler) Rename(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid label ID")
	}

	var req labelRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validator.ValidateLabelName(req.Name); err != nil {
		return response.BadRequest(c, err.Error())
	}

	owner := middleware.UserEmail(c)
	label, err := h.labels.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "label not found")
		}
		return response.InternalError(c, "failed to get label")
	}
	if label.Owner != owner {
		return response.NotFound(c, "label not found")
	}

	oldName := label.Name
	if err := h.labels.Rename(c.Request().Context(), uint(id), req.Name); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "label already exists")
		}
		return response.InternalError(c, "failed to rename label")
	}

	// Cascade over the owner's mailbox copies
	if _, err := h.messages.RenameLabelAll(c.Request().Context(), owner, oldName, req.Name); err != nil {
		return response.InternalError(c, "failed to cascade label rename")
	}

	label.Name = req.Name
	return response.Success(c, label)
}

// Delete handles DELETE /api/labels/:id
func (h *LabelHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid label ID")
	}

	owner := middleware.UserEmail(c)
	label, err := h.labels.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "label not found")
		}
		return response.InternalError(c, "failed to get label")
	}
	if label.Owner != owner {
		return response.NotFound(c, "label not found")
	}

	if err := h.labels.Delete(c.Request().Context(), uint(id)); err != nil {
		return response.InternalError(c, "failed to delete label")
	}

	// Cascade over the owner's mailbox copies
	if _, err := h.messages.RemoveLabelAll(c.Request().Context(), owner, label.Name); err != nil {
		return response.InternalError(c, "failed to cascade label delete")
	}

	return response.NoContent(c)
}
