package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/mailgo/mailgo-backend/internal/api/middleware"
	"github.com/mailgo/mailgo-backend/internal/api/response"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
)

// SettingsHandler handles the owner-mutable account settings
type SettingsHandler struct {
	users repository.UserRepository
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(users repository.UserRepository) *SettingsHandler {
	return &SettingsHandler{users: users}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "account not found")
		}
		return response.InternalError(c, "failed to get settings")
	}

	return response.Success(c, models.UserSettings{
		AutoReplyEnabled:     user.AutoReplyEnabled,
		AutoReplyMessage:     user.AutoReplyMessage,
		NotificationsEnabled: user.NotificationsEnabled,
		NotificationSound:    user.NotificationSound,
	})
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(c echo.Context) error {
	var settings models.UserSettings
	if err := c.Bind(&settings); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if len(settings.AutoReplyMessage) > 2000 {
		return response.BadRequest(c, "auto-reply message too long")
	}

	if err := h.users.UpdateSettings(c.Request().Context(), middleware.UserID(c), settings); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "account not found")
		}
		return response.InternalError(c, "failed to update settings")
	}

	return response.Success(c, settings)
}
