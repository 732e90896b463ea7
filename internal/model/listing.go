package model

// RoomInfo carries the bed/bedroom/bathroom counts derived from an offer.
// The extractor guarantees every count is at least 1; a hotel room is
// never modeled as having zero beds.
type RoomInfo struct {
	Beds      int `json:"beds"`
	Bedrooms  int `json:"bedrooms"`
	Bathrooms int `json:"bathrooms"`
}

// NormalizedListing is the canonical output unit of the search pipeline.
// Every field that feeds an arithmetic or display operation downstream is
// guaranteed non-empty: the extractor substitutes heuristic defaults
// rather than propagating missing provider data. Reputation fields are
// the one exception: nil means "no data", which presentation must not
// confuse with a score of zero.
//
// Fields:
//  HotelID         – provider identifier.
//  Title           – display name.
//  Address         – resolved address, never empty.
//  Latitude        – geocode, falls back to a region-level default.
//  Longitude       – geocode, falls back to a region-level default.
//  OfferID         – identifier of the lowest-priced offer.
//  RoomDescription – free-text description of the lowest-priced offer.
//  RoomType        – category of the lowest-priced offer.
//  Rooms           – derived bed/bedroom/bathroom counts, all at least 1.
//  PricePerNight   – normalized nightly price, within the sane band.
//  Currency        – currency of the displayed price.
//  ReputationScore – 0–5 display score, nil when no reputation matched.
//  RatingCount     – number of ratings behind the score, nil when unknown.
type NormalizedListing struct {
	HotelID         string   `json:"hotel_id"`
	Title           string   `json:"title"`
	Address         string   `json:"address"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	OfferID         string   `json:"offer_id"`
	RoomDescription string   `json:"room_description,omitempty"`
	RoomType        string   `json:"room_type,omitempty"`
	Rooms           RoomInfo `json:"rooms"`
	PricePerNight   float64  `json:"price_per_night"`
	Currency        string   `json:"currency"`
	ReputationScore *float64 `json:"reputation_score,omitempty"`
	RatingCount     *int     `json:"rating_count,omitempty"`
	// RoomTypes lists the categories of every priced offer on the item,
	// used by the room-type filter stage.
	RoomTypes []string `json:"-"`
}

// ReputationRecord is one entry of the secondary reputation/sentiment
// signal, joined onto listings strictly by identifier. Score uses the
// service's native 0–100 scale.
type ReputationRecord struct {
	HotelID     string  `json:"hotel_id"`
	Score       float64 `json:"score"`
	RatingCount int     `json:"rating_count"`
	ReviewCount int     `json:"review_count"`
}
