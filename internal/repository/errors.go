// Package repository persists booking records produced by the checkout
// reconciliation flow. The sentinel errors defined here let handlers
// distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrBookingNotFound is returned when a booking id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateBooking is returned when a session attempts to complete
// twice. Handlers should translate this into an HTTP 409 response.
var ErrDuplicateBooking = errors.New("booking already exists for session")
