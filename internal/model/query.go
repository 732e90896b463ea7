package model

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strings"
)

// InventoryQuery captures every constraint of a single hotel search.
// A query is built once from the request parameters and never mutated
// afterwards; the same value is used for the upstream pricing call,
// the local filter stages and the result-cache fingerprint.
//
// Fields:
//  RegionCode   – IATA-style city/region code (e.g. "NYC").
//  CheckIn      – ISO check-in date (YYYY-MM-DD), must precede CheckOut.
//  CheckOut     – ISO check-out date.
//  Adults       – number of adults, at least 1.
//  Rooms        – number of rooms, at least 1.
//  PriceMin     – optional lower price bound per night (nil = unconstrained).
//  PriceMax     – optional upper price bound per night.
//  MinBeds      – optional minimum bed count.
//  MinBedrooms  – optional minimum bedroom count.
//  MinBathrooms – optional minimum bathroom count.
//  RoomTypes    – optional set of acceptable room-type categories.
//  Amenities    – optional amenity codes, forwarded to the provider lookup.
//  Page         – 1-based result page.
//  PageSize     – results per page.
type InventoryQuery struct {
	RegionCode   string
	CheckIn      string
	CheckOut     string
	Adults       int
	Rooms        int
	PriceMin     *float64
	PriceMax     *float64
	MinBeds      *int
	MinBedrooms  *int
	MinBathrooms *int
	RoomTypes    []string
	Amenities    []string
	Page         int
	PageSize     int
}

// Validate checks the hard requirements of a query: a region code, an
// ordered date range and positive occupancy. Filter fields are optional
// and never validated here; an absent filter means "no constraint".
func (q InventoryQuery) Validate() error {
	if strings.TrimSpace(q.RegionCode) == "" {
		return fmt.Errorf("region code is required")
	}
	if q.CheckIn == "" || q.CheckOut == "" {
		return fmt.Errorf("check-in and check-out dates are required")
	}
	if q.CheckIn >= q.CheckOut {
		return fmt.Errorf("check-in must be before check-out")
	}
	if q.Adults < 1 {
		return fmt.Errorf("adults must be at least 1")
	}
	if q.Rooms < 1 {
		return fmt.Errorf("rooms must be at least 1")
	}
	return nil
}

// Fingerprint returns a stable key derived from every constraint field
// of the query. Two queries with the same constraints share a fingerprint
// regardless of pagination, so cached result sets can serve any page.
func (q InventoryQuery) Fingerprint() string {
	parts := []string{
		"region=" + q.RegionCode,
		"in=" + q.CheckIn,
		"out=" + q.CheckOut,
		fmt.Sprintf("adults=%d", q.Adults),
		fmt.Sprintf("rooms=%d", q.Rooms),
	}
	if q.PriceMin != nil {
		parts = append(parts, fmt.Sprintf("pmin=%.2f", *q.PriceMin))
	}
	if q.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("pmax=%.2f", *q.PriceMax))
	}
	if q.MinBeds != nil {
		parts = append(parts, fmt.Sprintf("beds=%d", *q.MinBeds))
	}
	if q.MinBedrooms != nil {
		parts = append(parts, fmt.Sprintf("bedrooms=%d", *q.MinBedrooms))
	}
	if q.MinBathrooms != nil {
		parts = append(parts, fmt.Sprintf("baths=%d", *q.MinBathrooms))
	}
	if len(q.RoomTypes) > 0 {
		parts = append(parts, "types="+joinSorted(q.RoomTypes))
	}
	if len(q.Amenities) > 0 {
		parts = append(parts, "amenities="+joinSorted(q.Amenities))
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&")))
	return fmt.Sprintf("%x", sum[:])
}

// joinSorted joins a copy of the values in sorted order so that the
// fingerprint does not depend on the order filters were supplied in.
func joinSorted(vals []string) string {
	cp := make([]string, len(vals))
	copy(cp, vals)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}
