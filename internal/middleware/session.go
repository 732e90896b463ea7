package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware

	"github.com/triporo/booking-api/internal/utils"
)

// SessionAuth returns an Echo middleware that validates the checkout
// session token carried in the Authorization header and verifies that it
// was issued for the session named in the :id path parameter. Checkout
// sessions are anonymous, so the token is the only proof of ownership;
// without this check any client could edit or commit another visitor's
// session. On success the session ID is stored in the context under
// "session_id".
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			sessionID, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session token"})
			}
			if pathID := c.Param("id"); pathID != "" && pathID != sessionID {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "token does not match session"})
			}
			c.Set("session_id", sessionID)
			return next(c)
		}
	}
}
