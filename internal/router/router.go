package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/triporo/booking-api/internal/handler"    // import the handlers that implement business logic
	"github.com/triporo/booking-api/internal/middleware" // import middleware for rate limiting and session auth
)

// RegisterRoutes registers routes that do not require a session token on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler. This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterSearch registers the public hotel search endpoint. The optional
// rate-limit middleware protects the provider quota: every search fans
// out into several upstream calls, so it is throttled per client IP.
func RegisterSearch(e *echo.Echo, s *handler.SearchHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/search")
	if limit != nil {
		g.Use(limit)
	}
	g.GET("/hotels", s.SearchHotels)
}

// RegisterCheckout registers the checkout session endpoints. Session
// creation is open; every other operation requires the session token
// issued at creation, enforced by the SessionAuth middleware so that one
// visitor cannot act on another visitor's session.
func RegisterCheckout(e *echo.Echo, h *handler.CheckoutHandler, sessionSecret string) {
	// Creating a session needs no prior token; it is the call that
	// issues one.
	e.POST("/v1/checkout/sessions", h.CreateSession)

	g := e.Group("/v1/checkout/sessions/:id")
	g.Use(middleware.SessionAuth(sessionSecret))
	g.GET("", h.GetSession)
	g.PATCH("/pending", h.EditPending)
	g.POST("/commit", h.Commit)
	g.POST("/revert", h.Revert)
	g.POST("/complete", h.Complete)
}

// RegisterBookings registers lookup and cancellation for persisted
// booking records. The caller skips registration entirely when the
// booking store is unavailable.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler) {
	g := e.Group("/v1/bookings/:id")
	g.GET("", h.GetBooking)
	g.POST("/cancel", h.CancelBooking)
}
