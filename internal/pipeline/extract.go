package pipeline

import (
	"log"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/triporo/booking-api/internal/model"
)

// universalPriceCeiling is the absolute upper bound on any displayed
// nightly price. Values above it can only be data errors (stale cache
// entries, minor-unit mixups) and are never shown.
const universalPriceCeiling = 10000.0

// Substitution band for prices that failed every correction rule. A
// randomized in-band value is displayed instead of an absurd number; each
// substitution is logged so the raw value stays auditable.
const (
	substituteFloor = 80.0
	substituteSpan  = 400.0
)

// highDenomRegion describes a region quoted in a high-denomination
// currency. Raw values above Ceiling are assumed to be quoted in the
// local minor unit and divided by the approximate conversion factor.
type highDenomRegion struct {
	Ceiling float64
	Divisor float64
}

// highDenomRegions covers the regions where currency-unit errors have
// been observed in provider data. Divisors are approximate: this rule
// recovers a plausible display price, not an exact conversion.
var highDenomRegions = map[string]highDenomRegion{
	"TYO": {Ceiling: 5000, Divisor: 150},   // JPY
	"OSA": {Ceiling: 5000, Divisor: 150},   // JPY
	"SEL": {Ceiling: 5000, Divisor: 1300},  // KRW
	"JKT": {Ceiling: 5000, Divisor: 15000}, // IDR
	"HAN": {Ceiling: 5000, Divisor: 24000}, // VND
	"SGN": {Ceiling: 5000, Divisor: 24000}, // VND
}

// regionDefault carries the region-level fallbacks substituted when the
// provider omits an address or geocode. The address is deliberately a
// district-level string, never a fabricated street address.
type regionDefault struct {
	Address string
	Lat     float64
	Lng     float64
}

var regionDefaults = map[string]regionDefault{
	"NYC": {Address: "Midtown, New York, NY", Lat: 40.7549, Lng: -73.9840},
	"LAX": {Address: "Downtown, Los Angeles, CA", Lat: 34.0407, Lng: -118.2468},
	"LON": {Address: "Central London", Lat: 51.5074, Lng: -0.1278},
	"PAR": {Address: "Central Paris", Lat: 48.8566, Lng: 2.3522},
	"TYO": {Address: "Central Tokyo", Lat: 35.6762, Lng: 139.6503},
}

var (
	bedCountRe = regexp.MustCompile(`(?i)(\d+)\s*(?:x\s*)?(?:king|queen|double|twin|single|sofa)\b`)
	bedroomRe  = regexp.MustCompile(`(?i)(\d+)\s*bed\s?rooms?\b`)
	bathroomRe = regexp.MustCompile(`(?i)(\d+)\s*bath(?:room)?s?\b`)
)

// ExtractRoomInfo derives bed, bedroom and bathroom counts from a raw
// offer. Priority for beds: the provider's estimated count when positive,
// then a numeric-prefixed bed-type token in the free-text description,
// then 1. Bedrooms and bathrooms default to 1 unless the description
// carries an explicit count; a "suite" mention floors both at 1 even when
// the description claims less. Every count in the result is at least 1.
func ExtractRoomInfo(offer model.RawOffer) model.RoomInfo {
	desc := offer.RoomDescription

	beds := 0
	if offer.EstimatedBeds != nil && *offer.EstimatedBeds > 0 {
		beds = *offer.EstimatedBeds
	} else if m := bedCountRe.FindStringSubmatch(desc); m != nil {
		beds, _ = strconv.Atoi(m[1])
	}
	if beds < 1 {
		beds = 1
	}

	bedrooms := 1
	if m := bedroomRe.FindStringSubmatch(desc); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			bedrooms = n
		}
	}

	bathrooms := 1
	if m := bathroomRe.FindStringSubmatch(desc); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			bathrooms = n
		}
	}

	if strings.Contains(strings.ToLower(desc), "suite") {
		if bedrooms < 1 {
			bedrooms = 1
		}
		if bathrooms < 1 {
			bathrooms = 1
		}
	}

	return model.RoomInfo{Beds: beds, Bedrooms: bedrooms, Bathrooms: bathrooms}
}

// ResolveAddress returns a usable display address for an item. Priority:
// the address from a previously fetched detail lookup, then the address
// embedded in the pricing response, then the region-level default. The
// function is total: it never returns an empty string.
func ResolveAddress(item model.RawInventoryItem, detail *model.RawInventoryItem, region string) string {
	if detail != nil {
		if addr := joinAddressLines(detail.AddressLines); addr != "" {
			return addr
		}
	}
	if addr := joinAddressLines(item.AddressLines); addr != "" {
		return addr
	}
	if def, ok := regionDefaults[strings.ToUpper(region)]; ok {
		return def.Address
	}
	return strings.ToUpper(region) + " city center"
}

// ResolveGeocode returns the item's geocode, falling back to the region
// default when the provider omitted it.
func ResolveGeocode(item model.RawInventoryItem, region string) (float64, float64) {
	if item.Latitude != nil && item.Longitude != nil {
		return *item.Latitude, *item.Longitude
	}
	if def, ok := regionDefaults[strings.ToUpper(region)]; ok {
		return def.Lat, def.Lng
	}
	return 0, 0
}

func joinAddressLines(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, ", ")
}

// NormalizePrice turns a raw provider price string into a displayable
// nightly price. Correction rules, in order: a value above a
// high-denomination region's ceiling is divided by the region's
// approximate conversion factor; a value still above the universal
// ceiling (or an unparsable value) is replaced with a randomized in-band
// substitute. The policy is "never show an absurd price": a genuinely
// expensive offer above the ceiling will be misreported, and every
// substitution is logged with the raw value so the cases remain visible.
func NormalizePrice(raw, region string) float64 {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || val <= 0 {
		sub := substitutePrice()
		log.Printf("pipeline: unparsable price %q for region %s, substituted %.2f", raw, region, sub)
		return sub
	}
	if hd, ok := highDenomRegions[strings.ToUpper(region)]; ok && val > hd.Ceiling {
		val = val / hd.Divisor
	}
	if val > universalPriceCeiling {
		sub := substitutePrice()
		log.Printf("pipeline: price %.2f above ceiling for region %s, substituted %.2f", val, region, sub)
		return sub
	}
	return val
}

func substitutePrice() float64 {
	return substituteFloor + rand.Float64()*substituteSpan
}
