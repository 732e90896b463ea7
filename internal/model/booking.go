package model

import "time"

// BookingRecord is the summary handed off to the persisted booking store
// after a checkout session completes successfully. The store itself is an
// external collaborator; this type defines only the fields the
// reconciliation flow must supply.
//
// Fields:
//  ID         – primary key identifier, assigned by the store.
//  SessionID  – checkout session the booking originated from.
//  OfferID    – confirmed offer identifier.
//  HotelID    – property identifier.
//  CheckIn    – confirmed check-in date.
//  CheckOut   – confirmed check-out date.
//  Adults     – confirmed adult count.
//  Rooms      – confirmed room count.
//  TotalPrice – total price at confirmation time.
//  Currency   – currency of the total price.
//  GuestName  – lead guest full name.
//  GuestEmail – lead guest contact email.
//  GuestPhone – lead guest contact phone, optional.
//  Status     – booking status (CONFIRMED, CANCELLED).
//  CreatedAt  – creation timestamp.
type BookingRecord struct {
	ID         uint64    `json:"id"`
	SessionID  string    `json:"session_id"`
	OfferID    string    `json:"offer_id"`
	HotelID    string    `json:"hotel_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Adults     int       `json:"adults"`
	Rooms      int       `json:"rooms"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	GuestPhone string    `json:"guest_phone,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}
