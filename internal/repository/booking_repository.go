package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/triporo/booking-api/internal/model"
)

// BookingRepo provides access to the bookings table. It is the narrow
// interface to the persisted booking store: the reconciliation flow
// writes one record per completed checkout and never updates it except
// for cancellation.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo over an open database handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// Create inserts a booking record and assigns its ID. A unique index on
// session_id makes completion idempotent at the storage layer: a second
// insert for the same session reports ErrDuplicateBooking.
func (r *BookingRepo) Create(ctx context.Context, b *model.BookingRecord) error {
	const q = `INSERT INTO bookings
		(session_id, offer_id, hotel_id, check_in, check_out, adults, rooms,
		 total_price, currency, guest_name, guest_email, guest_phone, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		b.SessionID, b.OfferID, b.HotelID, b.CheckIn, b.CheckOut, b.Adults, b.Rooms,
		b.TotalPrice, b.Currency, b.GuestName, b.GuestEmail, b.GuestPhone, b.Status, b.CreatedAt,
	)
	if err != nil {
		// 1062 is MySQL's duplicate-entry error; the driver error text
		// is stable enough to match on here without importing its types.
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrDuplicateBooking
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns one booking record.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.BookingRecord, error) {
	const q = `SELECT id, session_id, offer_id, hotel_id, check_in, check_out, adults, rooms,
		total_price, currency, guest_name, guest_email, guest_phone, status, created_at
		FROM bookings WHERE id = ?`
	var b model.BookingRecord
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.SessionID, &b.OfferID, &b.HotelID, &b.CheckIn, &b.CheckOut, &b.Adults, &b.Rooms,
		&b.TotalPrice, &b.Currency, &b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBySession returns the booking created from a checkout session, if any.
func (r *BookingRepo) GetBySession(ctx context.Context, sessionID string) (*model.BookingRecord, error) {
	const q = `SELECT id, session_id, offer_id, hotel_id, check_in, check_out, adults, rooms,
		total_price, currency, guest_name, guest_email, guest_phone, status, created_at
		FROM bookings WHERE session_id = ?`
	var b model.BookingRecord
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
		&b.ID, &b.SessionID, &b.OfferID, &b.HotelID, &b.CheckIn, &b.CheckOut, &b.Adults, &b.Rooms,
		&b.TotalPrice, &b.Currency, &b.GuestName, &b.GuestEmail, &b.GuestPhone, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel marks a booking CANCELLED. It does not delete the record; the
// row remains for downstream consumers that already saw the confirmation.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE bookings SET status = 'CANCELLED' WHERE id = ? AND status = 'CONFIRMED'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
