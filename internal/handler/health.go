package handler // declare the package name; contains HTTP handlers

import (
	"net/http"          // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running. It only
// proves the HTTP server is up; it does not probe Redis, MySQL or the
// upstream provider, all of which the service degrades without.
func Health(c echo.Context) error { // Health handler signature accepts an echo context and returns an error
	return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status; String writes plain text
}
