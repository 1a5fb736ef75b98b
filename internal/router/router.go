// Package router maps the HTTP surface onto handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/config"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/handler"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes.  Unauthenticated
// operations live under /v1/auth, while protected endpoints live under
// /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: movies,
// cinemas, showtimes and seat availability.  Responses are cached in
// Redis and guarded by the token-bucket rate limiter when a Redis client
// is supplied; passing nil skips both (tests).
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, rdb *redis.Client) {
	g := e.Group("/v1")
	if rdb != nil {
		g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	g.GET("/movies", cat.ListMovies)
	g.GET("/movies/:id", cat.GetMovie)
	g.GET("/movies/:id/showtimes", cat.ListShowtimes)
	g.GET("/cinemas", cat.ListCinemas)
	g.GET("/showtimes/:id/seats", cat.ShowtimeSeats)
}

// RegisterBooking registers the authenticated booking flow.  Every route
// requires a valid access token; the session token in the path scopes
// the request to one in-progress purchase.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/bookings/session", b.StartSession)
	g.GET("/bookings/session/:token/seats", b.GetSeats)
	g.POST("/bookings/session/:token/select", b.SelectSeat)
	g.POST("/bookings/session/:token/deselect", b.DeselectSeat)
	g.POST("/bookings/session/:token/submit", b.Submit)
	g.POST("/bookings/session/:token/pay", b.Pay)
	g.POST("/bookings/session/:token/cancel", b.Cancel)
	g.DELETE("/bookings/session/:token", b.Clear)

	g.GET("/my-bookings", b.ListMyBookings)
	g.GET("/bookings/:id", b.GetBooking)
	g.GET("/payments/:tx_ref/verify", b.VerifyPayment)
}
