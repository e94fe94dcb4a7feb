package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/api/handlers"
	"github.com/replyhq/reply-backend/internal/api/middleware"
	"github.com/replyhq/reply-backend/internal/attachment"
	"github.com/replyhq/reply-backend/internal/objectstore"
	"github.com/replyhq/reply-backend/internal/repository"
	"github.com/replyhq/reply-backend/internal/websocket"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	ObjectStore objectstore.ObjectStore
	Hub         *websocket.Hub
	Logger      *slog.Logger

	// Attachment settings
	PresignTTL        time.Duration
	MaxAttachmentSize int64

	// Security configuration
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      int      // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware, in order: recover first, identity last before handlers.
	e.Use(middleware.Recover())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins))

	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(float64(cfg.RateLimit), cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories and the attachment gateway
	userRepo := repository.NewUserRepository(cfg.DB)
	mailboxRepo := repository.NewMailboxRepository(cfg.DB)
	attachmentRepo := repository.NewAttachmentRepository(cfg.DB)
	gateway := attachment.NewGateway(attachmentRepo, cfg.ObjectStore, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.ObjectStore)
	mailboxHandler := handlers.NewMailboxHandler(mailboxRepo, gateway, cfg.Hub, cfg.MaxAttachmentSize, cfg.Logger)
	attachmentHandler := handlers.NewAttachmentHandler(gateway, mailboxRepo, cfg.PresignTTL, cfg.Logger)
	wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.AllowedOrigins, cfg.Logger)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// API routes, all behind the identity middleware
	api := e.Group("/api")
	api.Use(middleware.Identity(userRepo, cfg.Logger))

	api.GET("/current-user", mailboxHandler.CurrentUser)

	// Folder routes mirror the original URL surface: the folder is the
	// resource and the HTTP method selects the transition.
	api.GET("/inbox", mailboxHandler.Inbox)
	api.POST("/inbox", mailboxHandler.Send)
	api.PUT("/inbox", mailboxHandler.MarkRead)
	api.DELETE("/inbox", mailboxHandler.TrashFromInbox)

	api.GET("/sent", mailboxHandler.Sent)
	api.DELETE("/sent", mailboxHandler.PurgeFromSent)

	api.GET("/starred", mailboxHandler.Starred)
	api.POST("/starred", mailboxHandler.ToggleStar)

	api.GET("/trash", mailboxHandler.Trash)
	api.PATCH("/trash", mailboxHandler.RestoreToInbox)
	api.DELETE("/trash", mailboxHandler.PurgeFromTrash)

	api.GET("/messages/:id", mailboxHandler.GetMessage)
	api.GET("/attachments", attachmentHandler.Links)

	api.GET("/ws", wsHandler.Connect)

	return e
}
