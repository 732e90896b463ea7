package model

import "time"

// Session status values for the checkout reconciliation state machine.
const (
	StatusApplied      = "APPLIED"      // stable, matches the last confirmed offer
	StatusEditing      = "EDITING"      // pending diverged from applied, no network call yet
	StatusRevalidating = "REVALIDATING" // a pricing call is in flight for pending
	StatusUnavailable  = "UNAVAILABLE"  // revalidation found no matching offer
)

// OfferConfig is one booking configuration: an offer on a property for a
// stay and occupancy. The reconciliation machine keeps two of these side
// by side: the last confirmed one and the user's in-progress edits.
type OfferConfig struct {
	OfferID  string `json:"offer_id"`
	HotelID  string `json:"hotel_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Adults   int    `json:"adults"`
	Rooms    int    `json:"rooms"`
	// Price fields are refreshed on every successful revalidation.
	TotalPrice      string `json:"total_price,omitempty"`
	Currency        string `json:"currency,omitempty"`
	RoomDescription string `json:"room_description,omitempty"`
}

// Equal reports whether two configurations describe the same stay. Price
// fields are excluded; they are outputs of revalidation, not inputs.
func (c OfferConfig) Equal(o OfferConfig) bool {
	return c.OfferID == o.OfferID &&
		c.HotelID == o.HotelID &&
		c.CheckIn == o.CheckIn &&
		c.CheckOut == o.CheckOut &&
		c.Adults == o.Adults &&
		c.Rooms == o.Rooms
}

// BookingOfferState is the persisted state of one checkout session.
//
// Invariants:
//  - Applied always corresponds to an offer that was live as of its last
//    successful fetch. Pending may be inconsistent with current inventory
//    until explicitly committed.
//  - Seq increases by one per accepted commit; a revalidation response
//    carrying an older sequence number must be discarded.
//  - Busy is set while a revalidation is in flight; only one may be
//    outstanding per session.
type BookingOfferState struct {
	SessionID string      `json:"session_id"`
	Status    string      `json:"status"`
	Applied   OfferConfig `json:"applied"`
	Pending   OfferConfig `json:"pending"`
	Seq       uint64      `json:"seq"`
	Busy      bool        `json:"busy"`
	// Warning holds a soft, user-visible notice such as an offer
	// substitution flagged by the provider. Cleared on the next edit.
	Warning   string    `json:"warning,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
