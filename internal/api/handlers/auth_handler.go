package handlers

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mailgo/mailgo-backend/internal/api/response"
	"github.com/mailgo/mailgo-backend/internal/auth"
	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/validator"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		return response.BadRequest(c, "invalid email address")
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if strings.TrimSpace(req.Name) == "" {
		return response.BadRequest(c, "name is required")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.InternalError(c, "failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		// Accounts are contactable immediately; there is no separate
		// verification flow on this deployment.
		IsEmailVerified:      true,
		NotificationsEnabled: true,
		NotificationSound:    true,
	}

	if err := h.users.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "email already registered")
		}
		return response.InternalError(c, "failed to create account")
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return response.InternalError(c, "failed to issue token")
	}

	return response.Created(c, authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		// Same response for unknown account and wrong password
		return response.Unauthorized(c, "invalid credentials")
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return response.Unauthorized(c, "invalid credentials")
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return response.InternalError(c, "failed to issue token")
	}

	return response.Success(c, authResponse{Token: token, User: user})
}
