// Package gateway is the HTTP front end of the client stack. It serves the
// data behind each client route as JSON, composing the listing, chat,
// reservation, notification and admin components against the backend.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sudo-init-do/marketfront/internal/admin"
	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/metrics"
	mware "github.com/sudo-init-do/marketfront/internal/middleware"
	"github.com/sudo-init-do/marketfront/internal/refdata"
)

const DefaultHomeBatchSize = 100

type Deps struct {
	API     *api.Client
	Refdata *refdata.Service
	Admin   *admin.Service
	Metrics *metrics.Metrics
	// Redis is optional; when set /ready pings it.
	Redis  *redis.Client
	Logger *slog.Logger

	HomeBatchSize int
	// Now is the clock used for relative times.
	Now func() time.Time
}

type handlers struct {
	Deps
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.HomeBatchSize <= 0 {
		d.HomeBatchSize = DefaultHomeBatchSize
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Admin == nil {
		d.Admin = admin.NewService(d.API, 0)
	}
	if d.Refdata == nil {
		d.Refdata = refdata.NewService(d.API, nil, 0, d.Logger)
	}
	h := &handlers{Deps: d}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(mware.RequestLogger(d.Logger))
	if d.Metrics != nil {
		e.Use(mware.Metrics(d.Metrics))
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", h.ready)

	// Public routes
	e.GET("/", h.home)
	e.GET("/products", h.products)
	e.POST("/search", h.search)
	e.GET("/products/:id", h.product)
	e.GET("/areas", h.areas)
	e.GET("/categories", h.categories)

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/send-code", h.sendCode)
	authGroup.POST("/verify-code", h.verifyCode)
	authGroup.POST("/signup", h.signup)
	authGroup.POST("/login", h.login)

	// Protected routes. The token gate is attached per route so unknown paths
	// still answer 404.
	authed := mware.RequireToken

	e.POST("/auth/logout", h.logout, authed)
	e.GET("/users/profile", h.profile, authed)
	e.POST("/products/register", h.registerProduct, authed, mware.RequireRoles(api.RoleUser, api.RoleAdmin))
	e.PUT("/products/:id/dib", h.toggleDib, authed)
	e.GET("/users/products/:id", h.myProduct, authed)
	e.PUT("/users/products/:id", h.updateProduct, authed)
	e.DELETE("/users/products/:id", h.deleteProduct, authed)

	e.POST("/chats", h.createChat, authed)
	e.GET("/chats", h.chats, authed)
	e.GET("/chats/:id", h.chat, authed)
	e.DELETE("/chats/:id", h.leaveChat, authed)
	e.POST("/chats/:id/reservation", h.createReservation, authed)
	e.DELETE("/chats/:id/reservation", h.cancelReservation, authed)

	e.GET("/notifications", h.notifications, authed)
	e.PATCH("/notifications/:id/read", h.markNotificationRead, authed)
	e.DELETE("/notifications/:id", h.deleteNotification, authed)

	e.POST("/reports", h.createReport, authed)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.RequireToken)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/users", h.adminUsers)
	adminGroup.PUT("/users/:id/status", h.adminSetUserStatus)
	adminGroup.GET("/reports", h.adminReports)

	return e
}

func (h *handlers) ready(c echo.Context) error {
	if h.Redis == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.Redis.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "redis unreachable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
