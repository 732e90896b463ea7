package queue

// BookingConfirmedEvent is published when a checkout session completes
// successfully. It carries enough of the booking summary for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	SessionID   string `json:"session_id"`
	HotelID     string `json:"hotel_id"`
	OfferID     string `json:"offer_id"`
	CheckIn     string `json:"check_in"`
	CheckOut    string `json:"check_out"`
	Adults      int    `json:"adults"`
	Rooms       int    `json:"rooms"`
	TotalPrice  string `json:"total_price"`
	Currency    string `json:"currency"`
	GuestEmail  string `json:"guest_email"`
	ConfirmedAt string `json:"confirmed_at"`
}
