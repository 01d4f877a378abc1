package api

import (
	"log/slog"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mailgo/mailgo-backend/internal/api/handlers"
	"github.com/mailgo/mailgo-backend/internal/api/middleware"
	"github.com/mailgo/mailgo-backend/internal/auth"
	"github.com/mailgo/mailgo-backend/internal/delivery"
	"github.com/mailgo/mailgo-backend/internal/identity"
	"github.com/mailgo/mailgo-backend/internal/logger"
	"github.com/mailgo/mailgo-backend/internal/repository"
	"github.com/mailgo/mailgo-backend/internal/spam"
	"github.com/mailgo/mailgo-backend/internal/storage"
	"github.com/mailgo/mailgo-backend/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	FileStorage storage.AttachmentStorage
	Hub         *websocket.Hub
	Classifier  *spam.Classifier
	Tokens      *auth.TokenManager
	Logger      *slog.Logger
	Events      *logger.EventLogger
	// Security configuration
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
}

// hubNotifier adapts the hub to the delivery pipeline's notifier contract.
type hubNotifier struct {
	hub *websocket.Hub
}

func (n hubNotifier) NotifyNewMessage(identityAddr string, notif delivery.Notification) error {
	n.hub.NotifyNewMessage(identityAddr, &websocket.NewMessagePayload{
		MessageID:   notif.MessageID,
		Sender:      notif.Sender,
		Subject:     notif.Subject,
		SentAt:      notif.SentAt,
		SpamVerdict: string(notif.SpamVerdict),
	})
	return nil
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - Set environment variable if origins provided in config
	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(cfg.DB)
	messageRepo := repository.NewMessageRepository(cfg.DB)
	labelRepo := repository.NewLabelRepository(cfg.DB)

	// Delivery pipeline
	resolver := identity.NewResolver(userRepo)
	pipeline := delivery.NewPipeline(messageRepo, resolver, cfg.Classifier, hubNotifier{hub: cfg.Hub}, cfg.Events)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	authHandler := handlers.NewAuthHandler(userRepo, cfg.Tokens)
	emailHandler := handlers.NewEmailHandler(pipeline, messageRepo, labelRepo, cfg.Hub)
	labelHandler := handlers.NewLabelHandler(labelRepo, messageRepo)
	settingsHandler := handlers.NewSettingsHandler(userRepo)
	attachmentHandler := handlers.NewAttachmentHandler(messageRepo, cfg.FileStorage, cfg.Events)
	wsHandler := handlers.NewWSHandler(cfg.Hub, websocket.NewSecureUpgrader(cfg.AllowedOrigins, cfg.Logger), cfg.Logger)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Auth routes (no auth required)
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)

	authRequired := middleware.JWTAuth(cfg.Tokens, cfg.Logger)

	// WebSocket route (token via query parameter)
	e.GET("/ws", wsHandler.Serve, authRequired)

	// API routes
	api := e.Group("/api", authRequired)

	// Email routes
	emails := api.Group("/emails")
	emails.POST("/send", emailHandler.Send)
	emails.POST("/draft", emailHandler.SaveDraft)
	emails.PUT("/draft/:id", emailHandler.UpdateDraft)
	emails.POST("/:id/reply", emailHandler.Reply)
	emails.POST("/:id/forward", emailHandler.Forward)
	emails.GET("/folder/:folder", emailHandler.ListFolder)
	emails.GET("/search", emailHandler.Search)
	emails.GET("/:id", emailHandler.Get)
	emails.PATCH("/:id/read", emailHandler.SetRead)
	emails.PATCH("/:id/star", emailHandler.SetStarred)
	emails.PATCH("/:id/folder", emailHandler.MoveToFolder)
	emails.POST("/:id/labels", emailHandler.SetLabels)
	emails.DELETE("/:id/labels/:name", emailHandler.RemoveLabel)

	// Label routes
	labels := api.Group("/labels")
	labels.POST("", labelHandler.Create)
	labels.GET("", labelHandler.List)
	labels.PUT("/:id", labelHandler.Rename)
	labels.DELETE("/:id", labelHandler.Delete)

	// Settings routes
	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Update)

	// Attachment routes
	attachments := api.Group("/attachments")
	attachments.POST("", attachmentHandler.Upload)
	attachments.GET("/:id/download", attachmentHandler.Download)

	return e
}
