package pipeline

import (
	"strings"

	"github.com/triporo/booking-api/internal/model"
)

// maxPages caps how many pages a single result set may span, bounding the
// displayed result count regardless of upstream volume.
const maxPages = 12

// ApplyFilters applies the user-specified constraints to listings, in
// order: price band, room-count minimums, room-type membership. Each stage
// is skipped when its query field is absent; absence means "no
// constraint", never "match nothing". The amenity filter is not applied
// here: it is delegated to the upstream inventory lookup. The function is
// pure and idempotent.
func ApplyFilters(listings []model.NormalizedListing, q model.InventoryQuery) []model.NormalizedListing {
	out := make([]model.NormalizedListing, 0, len(listings))
	for _, l := range listings {
		if !priceInBand(l, q) {
			continue
		}
		if !meetsRoomMinimums(l, q) {
			continue
		}
		if !matchesRoomType(l, q.RoomTypes) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func priceInBand(l model.NormalizedListing, q model.InventoryQuery) bool {
	if q.PriceMin != nil && l.PricePerNight < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && l.PricePerNight > *q.PriceMax {
		return false
	}
	return true
}

// meetsRoomMinimums requires the listing to meet or exceed every
// specified minimum independently.
func meetsRoomMinimums(l model.NormalizedListing, q model.InventoryQuery) bool {
	if q.MinBeds != nil && l.Rooms.Beds < *q.MinBeds {
		return false
	}
	if q.MinBedrooms != nil && l.Rooms.Bedrooms < *q.MinBedrooms {
		return false
	}
	if q.MinBathrooms != nil && l.Rooms.Bathrooms < *q.MinBathrooms {
		return false
	}
	return true
}

// matchesRoomType passes a listing when any of its priced offers matches
// one of the requested categories.
func matchesRoomType(l model.NormalizedListing, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, have := range l.RoomTypes {
		for _, want := range wanted {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// Paginate returns the requested 1-based page of listings. The total set
// is first capped at pageSize*maxPages; within the cap, concatenating all
// pages reproduces the set exactly once each.
func Paginate(listings []model.NormalizedListing, pageSize, page int) []model.NormalizedListing {
	if pageSize < 1 {
		pageSize = 8
	}
	if page < 1 {
		page = 1
	}
	capped := listings
	if limit := pageSize * maxPages; len(capped) > limit {
		capped = capped[:limit]
	}
	start := (page - 1) * pageSize
	if start >= len(capped) {
		return []model.NormalizedListing{}
	}
	end := start + pageSize
	if end > len(capped) {
		end = len(capped)
	}
	return capped[start:end]
}
