package model

// RawInventoryItem is the provider's unprocessed representation of one
// bookable property. Everything in it is optional except the identifier;
// the extractor layer is responsible for turning this loosely structured
// payload into a NormalizedListing with no missing fields.
//
// Fields:
//  HotelID      – provider identifier, the join key for pricing and reputation.
//  Name         – display name as returned by the provider.
//  AddressLines – street address lines, possibly empty.
//  CityCode     – region/city code the provider filed the property under.
//  Latitude     – geocode, nil when the provider omitted it.
//  Longitude    – geocode, nil when the provider omitted it.
//  Offers       – zero or more priced offers; empty means no availability.
type RawInventoryItem struct {
	HotelID      string     `json:"hotel_id"`
	Name         string     `json:"name"`
	AddressLines []string   `json:"address_lines,omitempty"`
	CityCode     string     `json:"city_code,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Offers       []RawOffer `json:"offers,omitempty"`
}

// RawOffer is one priced, dated, occupancy-specific booking option
// attached to an inventory item. Price fields arrive as strings because
// the upstream wire format quotes decimals.
type RawOffer struct {
	OfferID         string    `json:"offer_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	BasePrice       string    `json:"base_price"`
	TotalPrice      string    `json:"total_price"`
	Currency        string    `json:"currency"`
	Taxes           []TaxLine `json:"taxes,omitempty"`
	RoomDescription string    `json:"room_description,omitempty"`
	RoomType        string    `json:"room_type,omitempty"`
	BedType         string    `json:"bed_type,omitempty"`
	EstimatedBeds   *int      `json:"estimated_beds,omitempty"`
	// Fallback is set by the provider when this offer was substituted
	// for the one originally requested.
	Fallback bool `json:"fallback,omitempty"`
}

// TaxLine is a single tax component of an offer's price breakdown.
type TaxLine struct {
	Code     string `json:"code"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Included bool   `json:"included"`
}
