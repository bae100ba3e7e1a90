// Package router wires HTTP routes to handlers and applies the middleware
// stack: rate limiting on the whole API, JWT auth and role checks on the
// protected groups, and the Redis response cache on the availability
// listing.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/middleware"
	"github.com/iliyamo/library-seat-reservation/internal/model"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth        *handler.AuthHandler
	Reservation *handler.ReservationHandler
	Seat        *handler.SeatHandler
	Admin       *handler.AdminHandler
	Payment     *handler.PaymentHandler
}

// Register wires all routes.  Layout:
//
//	GET  /healthz                          liveness probe, unauthenticated
//	POST /v1/auth/{register,login,refresh} session endpoints
//	POST /v1/payments/webhook              provider callback, unauthenticated
//	     /v1/...                           student endpoints (STUDENT role)
//	     /v1/admin/...                     administrative endpoints (ADMIN role)
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Rate limit everything under /v1 with the shared token bucket.
	api := e.Group("/v1", middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	// The provider's webhook authenticates by session knowledge, not JWT.
	api.POST("/payments/webhook", h.Payment.Webhook)

	// Student endpoints.
	student := api.Group("",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleStudent, model.RoleAdmin),
	)
	student.GET("/me", h.Auth.Me)
	student.POST("/auth/logout", h.Auth.Logout)
	student.GET("/seats/available", h.Seat.ListAvailable,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	student.POST("/seats/:id/reservations", h.Reservation.Create)
	student.GET("/reservations", h.Reservation.Dashboard)
	student.GET("/reservations/:id", h.Reservation.Get)
	student.POST("/reservations/:id/otp", h.Reservation.IssueCode)
	student.POST("/reservations/:id/check-in", h.Reservation.CheckIn)
	student.POST("/reservations/:id/cancel", h.Reservation.Cancel)
	student.POST("/payments", h.Payment.Initiate)

	// Administrative endpoints.
	admin := api.Group("/admin",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("/settings", h.Admin.GetSettings)
	admin.PUT("/settings", h.Admin.UpdateSettings)
	admin.POST("/reservations/:id/no-show", h.Admin.MarkNoShow)
	admin.POST("/reservations/:id/complete", h.Admin.Complete)
	admin.POST("/seats", h.Admin.CreateSeat)
	admin.PATCH("/seats/:id", h.Admin.SetSeatActive)
	admin.POST("/students/:id/fines", h.Admin.AssessFine)
}
