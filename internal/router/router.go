package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cleancity/waste-collection/internal/config"
	"github.com/cleancity/waste-collection/internal/handler"
	"github.com/cleancity/waste-collection/internal/middleware"
	"github.com/cleancity/waste-collection/internal/model"
)

// Handlers bundles every handler the API mounts so Register stays a single
// call site in main.
type Handlers struct {
	Auth          *handler.AuthHandler
	Tasks         *handler.TaskHandler
	Users         *handler.UserHandler
	Dashboard     *handler.DashboardHandler
	Notifications *handler.NotificationHandler
	AI            *handler.AIHandler
}

// Register mounts all routes on the provided Echo instance. Public routes
// live under /api/auth, everything else under /api requires a valid access
// token, and the administrative surface under /api/admin additionally
// requires the admin role.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	// Health check for load balancers and monitoring; no auth, no prefix.
	e.GET("/healthz", handler.Health)

	rl := config.LoadRateLimitConfig()
	cache := config.LoadCacheConfig()

	// Unauthenticated session endpoints. These are the endpoints worth
	// brute-forcing, so the token-bucket limiter is applied here only.
	auth := e.Group("/api/auth", middleware.RateLimit(rl, rdb))
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)

	// Everything below requires a valid access token.
	api := e.Group("/api", middleware.JWTAuth(cfg.JWTSecret))

	// /api/auth/me sits under the auth prefix for the client's sake but is
	// a protected route, so it is registered on the JWT group.
	api.GET("/auth/me", h.Auth.Me)

	// Task lifecycle. List scoping (own tasks vs. collector view vs. all)
	// is decided inside the handler from query parameters.
	api.GET("/tasks", h.Tasks.List)
	api.POST("/tasks", h.Tasks.Create)
	api.PATCH("/tasks/:id", h.Tasks.Update)
	api.DELETE("/tasks", h.Tasks.Delete)

	// Leaderboard is read-heavy and identical for every caller, so its
	// responses are served from the Redis cache when one is configured.
	api.GET("/leaderboard", h.Dashboard.Leaderboard, middleware.CacheResponse(cache, rdb))

	// Image classification proxied to the AI backend.
	api.POST("/ai/classify", h.AI.Classify)
	api.POST("/ai/verify", h.AI.Verify)

	// Per-user notification feed.
	api.GET("/notifications", h.Notifications.List)
	api.PATCH("/notifications/:id/read", h.Notifications.MarkRead)

	// Administrative surface: user management and the stats dashboard.
	admin := api.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/dashboard/stats", h.Dashboard.Overview, middleware.CacheResponse(cache, rdb))
	admin.POST("/users", h.Users.Create)

	// User management requires admin as well but keeps its original paths.
	users := api.Group("/users", middleware.RequireRole(model.RoleAdmin))
	users.GET("", h.Users.List)
	users.PATCH("", h.Users.Update)
	users.DELETE("", h.Users.Delete)
}
