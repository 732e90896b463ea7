package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/triporo/booking-api/internal/repository"
)

// BookingHandler exposes persisted booking records: lookup for support
// tooling and confirmation pages, cancellation for the post-checkout
// flow. Checkout sessions are gone by the time these run, so the routes
// key on the booking id directly.
type BookingHandler struct {
	Repo *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler. The repo must be non-nil;
// the routes are simply not registered when the booking store is down.
func NewBookingHandler(repo *repository.BookingRepo) *BookingHandler {
	if repo == nil {
		panic("nil repo passed to NewBookingHandler")
	}
	return &BookingHandler{Repo: repo}
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	record, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": record})
}

// CancelBooking handles POST /v1/bookings/:id/cancel. Only a CONFIRMED
// booking can be cancelled; the row is kept so downstream consumers that
// saw the confirmation still find it.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Repo.Cancel(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no confirmed booking to cancel"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	record, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"cancelled": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": record})
}
