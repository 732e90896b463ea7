// Package provider implements the client for the upstream inventory API:
// OAuth client-credentials token acquisition, hotel listing by region and
// batched offer pricing. The wire types in this file mirror the provider's
// JSON payloads and are mapped onto the model package at the boundary so
// that nothing outside this package depends on the provider's format.
package provider

import "github.com/triporo/booking-api/internal/model"

// Stay carries the pricing parameters of one search or revalidation:
// the date range, the occupancy and any amenity codes the provider
// should filter on (the amenity filter is delegated upstream and never
// reapplied locally).
type Stay struct {
	CheckIn   string
	CheckOut  string
	Adults    int
	Rooms     int
	Amenities []string
}

// tokenResponse is the provider's OAuth token payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// hotelListResponse wraps the region inventory listing.
type hotelListResponse struct {
	Data []hotelEntry `json:"data"`
}

// hotelEntry is one property in the provider's listing or pricing payloads.
type hotelEntry struct {
	HotelID string `json:"hotelId"`
	Name    string `json:"name"`
	Address struct {
		Lines    []string `json:"lines"`
		CityCode string   `json:"cityCode"`
	} `json:"address"`
	GeoCode *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geoCode"`
}

// offersResponse wraps the batched pricing payload.
type offersResponse struct {
	Data []offerEntry `json:"data"`
}

// offerEntry pairs one hotel with its priced offers. An available=false
// entry or an empty offer list signals no availability, not an error.
type offerEntry struct {
	Hotel     hotelEntry    `json:"hotel"`
	Available bool          `json:"available"`
	Offers    []offerRecord `json:"offers"`
}

// offerRecord is a single priced offer as the provider quotes it.
type offerRecord struct {
	ID           string `json:"id"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	RateCode     string `json:"rateCode"`
	// Fallback marks an offer substituted by the provider for the one
	// originally requested.
	Fallback bool `json:"fallback,omitempty"`
	Room     struct {
		Type          string `json:"type"`
		TypeEstimated struct {
			Category string `json:"category"`
			Beds     *int   `json:"beds"`
			BedType  string `json:"bedType"`
		} `json:"typeEstimated"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
	} `json:"room"`
	Price struct {
		Currency string `json:"currency"`
		Base     string `json:"base"`
		Total    string `json:"total"`
		Taxes    []struct {
			Code     string `json:"code"`
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
			Included bool   `json:"included"`
		} `json:"taxes"`
	} `json:"price"`
}

// toModel maps a listing entry (no offers) onto the domain type.
func (h hotelEntry) toModel() model.RawInventoryItem {
	item := model.RawInventoryItem{
		HotelID:      h.HotelID,
		Name:         h.Name,
		AddressLines: h.Address.Lines,
		CityCode:     h.Address.CityCode,
	}
	if h.GeoCode != nil {
		lat, lng := h.GeoCode.Latitude, h.GeoCode.Longitude
		item.Latitude = &lat
		item.Longitude = &lng
	}
	return item
}

// toModel maps a priced entry onto the domain type, carrying every offer.
func (e offerEntry) toModel() model.RawInventoryItem {
	item := e.Hotel.toModel()
	for _, o := range e.Offers {
		offer := model.RawOffer{
			OfferID:         o.ID,
			CheckIn:         o.CheckInDate,
			CheckOut:        o.CheckOutDate,
			BasePrice:       o.Price.Base,
			TotalPrice:      o.Price.Total,
			Currency:        o.Price.Currency,
			RoomDescription: o.Room.Description.Text,
			RoomType:        o.Room.TypeEstimated.Category,
			BedType:         o.Room.TypeEstimated.BedType,
			EstimatedBeds:   o.Room.TypeEstimated.Beds,
			Fallback:        o.Fallback,
		}
		for _, t := range o.Price.Taxes {
			offer.Taxes = append(offer.Taxes, model.TaxLine{
				Code:     t.Code,
				Amount:   t.Amount,
				Currency: t.Currency,
				Included: t.Included,
			})
		}
		item.Offers = append(item.Offers, offer)
	}
	return item
}
