// Package middleware provides HTTP middleware for the Mailgo API.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mailgo/mailgo-backend/internal/auth"
)

// Context keys set by JWTAuth.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// JWTAuth validates the bearer token and stores the authenticated identity
// on the request context.
func JWTAuth(tokens *auth.TokenManager, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				// WebSocket upgrades cannot set headers from browsers, so the
				// token travels as a query parameter there.
				authHeader = c.QueryParam("token")
				if authHeader != "" {
					authHeader = "Bearer " + authHeader
				}
			}
			if authHeader == "" {
				if logger != nil {
					logger.Warn("missing authorization header",
						slog.String("ip", c.RealIP()),
						slog.String("path", c.Path()))
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing authorization header",
					"code":  "UNAUTHORIZED",
				})
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := tokens.Verify(token)
			if err != nil {
				if logger != nil {
					logger.Warn("invalid token",
						slog.String("ip", c.RealIP()),
						slog.String("path", c.Path()))
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "invalid or expired token",
					"code":  "UNAUTHORIZED",
				})
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)

			return next(c)
		}
	}
}

// UserEmail returns the authenticated identity set by JWTAuth.
func UserEmail(c echo.Context) string {
	if v, ok := c.Get(ContextUserEmail).(string); ok {
		return v
	}
	return ""
}

// UserID returns the authenticated user id set by JWTAuth.
func UserID(c echo.Context) uint {
	if v, ok := c.Get(ContextUserID).(uint); ok {
		return v
	}
	return 0
}
