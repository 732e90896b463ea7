package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/queue"
	"github.com/triporo/booking-api/internal/reconcile"
	"github.com/triporo/booking-api/internal/repository"
	queue_publisher "github.com/triporo/booking-api/internal/service"
	"github.com/triporo/booking-api/internal/utils"
)

// CheckoutHandler drives checkout sessions through the reconciliation
// state machine. Session ownership is enforced by the SessionAuth
// middleware on every route except session creation; handlers only
// translate machine outcomes into HTTP responses.
type CheckoutHandler struct {
	Machine       *reconcile.Machine
	BookingRepo   *repository.BookingRepo // nil when the booking store is not configured
	SessionSecret string
	SessionTTLMin int
}

// NewCheckoutHandler constructs a CheckoutHandler. The machine must be
// non-nil; the booking repo may be nil, in which case completion fails
// with 503 rather than silently dropping records.
func NewCheckoutHandler(m *reconcile.Machine, repo *repository.BookingRepo, secret string, ttlMin int) *CheckoutHandler {
	if m == nil {
		panic("nil machine passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Machine: m, BookingRepo: repo, SessionSecret: secret, SessionTTLMin: ttlMin}
}

// CreateSession handles POST /v1/checkout/sessions. The body carries the
// offer the user arrived at checkout with; the response includes the
// session state and the bearer token required for every follow-up call.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var body struct {
		OfferID  string `json:"offer_id"`
		HotelID  string `json:"hotel_id"`
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
		Adults   int    `json:"adults"`
		Rooms    int    `json:"rooms"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OfferID == "" || body.HotelID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offer_id and hotel_id are required"})
	}
	if body.Adults < 1 {
		body.Adults = 1
	}
	if body.Rooms < 1 {
		body.Rooms = 1
	}

	state, err := h.Machine.Start(c.Request().Context(), model.OfferConfig{
		OfferID:  body.OfferID,
		HotelID:  body.HotelID,
		CheckIn:  body.CheckIn,
		CheckOut: body.CheckOut,
		Adults:   body.Adults,
		Rooms:    body.Rooms,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
	}

	tok, err := utils.NewSessionToken(h.SessionSecret, state.SessionID, h.SessionTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue session token"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"session":       state,
		"session_token": tok.Token,
		"expires_at":    tok.Exp.Format(time.RFC3339),
	})
}

// GetSession handles GET /v1/checkout/sessions/:id.
func (h *CheckoutHandler) GetSession(c echo.Context) error {
	state, err := h.Machine.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session": state})
}

// EditPending handles PATCH /v1/checkout/sessions/:id/pending. Only the
// pending configuration is touched; omitted fields keep their values.
func (h *CheckoutHandler) EditPending(c echo.Context) error {
	var body struct {
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
		Adults   int    `json:"adults"`
		Rooms    int    `json:"rooms"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	state, err := h.Machine.Edit(c.Request().Context(), c.Param("id"), body.CheckIn, body.CheckOut, body.Adults, body.Rooms)
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session": state})
}

// Commit handles POST /v1/checkout/sessions/:id/commit. A successful
// commit promotes the pending configuration; an unavailable outcome keeps
// the applied configuration and tells the client a revert is available.
func (h *CheckoutHandler) Commit(c echo.Context) error {
	state, err := h.Machine.Commit(c.Request().Context(), c.Param("id"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"session": state})
	case errors.Is(err, reconcile.ErrMissingDates):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_dates", "message": err.Error()})
	case errors.Is(err, reconcile.ErrRevalidationFailed):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":   "revalidation_failed",
			"message": "could not reach the provider, commit again to retry",
			"session": state,
		})
	case errors.Is(err, reconcile.ErrOfferUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      "offer_unavailable",
			"message":    "the selected dates are no longer available",
			"session":    state,
			"can_revert": true,
		})
	default:
		return h.sessionError(c, err)
	}
}

// Revert handles POST /v1/checkout/sessions/:id/revert, restoring the
// last confirmed configuration and discarding the pending diff.
func (h *CheckoutHandler) Revert(c echo.Context) error {
	state, err := h.Machine.Revert(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"session": state})
}

// Complete handles POST /v1/checkout/sessions/:id/complete. It persists
// the booking record and publishes the confirmation event; a broker
// outage is logged and ignored since the record is already durable.
func (h *CheckoutHandler) Complete(c echo.Context) error {
	if h.BookingRepo == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking store unavailable"})
	}
	var body struct {
		GuestName  string `json:"guest_name"`
		GuestEmail string `json:"guest_email"`
		GuestPhone string `json:"guest_phone"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.GuestName) == "" || strings.TrimSpace(body.GuestEmail) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name and guest_email are required"})
	}

	ctx := c.Request().Context()
	sessionID := c.Param("id")
	record, err := h.Machine.Complete(ctx, sessionID, body.GuestName, body.GuestEmail, body.GuestPhone)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotCommitted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "uncommitted_changes", "message": err.Error()})
		}
		return h.sessionError(c, err)
	}

	// The session is discarded only after the record is durable, so a
	// failed insert leaves the checkout intact and the client can retry.
	if err := h.BookingRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			// A previous attempt already persisted this session's booking
			// (the insert succeeded but the response was lost). Return it.
			if existing, lookupErr := h.BookingRepo.GetBySession(ctx, sessionID); lookupErr == nil {
				h.Machine.Discard(ctx, sessionID)
				return c.JSON(http.StatusOK, echo.Map{"booking": existing})
			}
			return c.JSON(http.StatusConflict, echo.Map{"error": "already_booked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to persist booking"})
	}
	h.Machine.Discard(ctx, sessionID)

	ev := queue.BookingConfirmedEvent{
		BookingID:   record.ID,
		SessionID:   record.SessionID,
		HotelID:     record.HotelID,
		OfferID:     record.OfferID,
		CheckIn:     record.CheckIn,
		CheckOut:    record.CheckOut,
		Adults:      record.Adults,
		Rooms:       record.Rooms,
		TotalPrice:  record.TotalPrice,
		Currency:    record.Currency,
		GuestEmail:  record.GuestEmail,
		ConfirmedAt: record.CreatedAt.Format(time.RFC3339),
	}
	if err := queue_publisher.PublishBookingConfirmed(context.WithoutCancel(ctx), ev); err != nil {
		log.Printf("checkout: booking %d confirmed but event publish failed: %v", record.ID, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"booking": record})
}

// sessionError maps machine/store errors onto HTTP responses shared by
// every session endpoint.
func (h *CheckoutHandler) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, reconcile.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, reconcile.ErrSessionBusy):
		return c.JSON(http.StatusConflict, echo.Map{"error": "revalidation_in_flight", "message": "a commit is already being processed"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session error", "message": err.Error()})
	}
}
