package pipeline

import "github.com/triporo/booking-api/internal/model"

// reputationDisplayDivisor maps the service's 0–100 scale onto the 0–5
// scale the rest of the product displays.
const reputationDisplayDivisor = 20.0

// MergeReputation joins reputation records onto listings by hotel id.
// It is a pure left join: a listing with a strictly positive matching
// score gets ReputationScore (display scale) and RatingCount overlaid;
// a listing with no match, or a non-positive score, is left untouched,
// since zero is a valid score upstream and must not be confused with
// "no data".
// The function never fails; callers pass nil when the reputation service
// was unreachable and every listing passes through unchanged.
func MergeReputation(listings []model.NormalizedListing, byID map[string]model.ReputationRecord) []model.NormalizedListing {
	if len(byID) == 0 {
		return listings
	}
	for i := range listings {
		rec, ok := byID[listings[i].HotelID]
		if !ok || rec.Score <= 0 {
			continue
		}
		score := rec.Score / reputationDisplayDivisor
		count := rec.RatingCount
		listings[i].ReputationScore = &score
		listings[i].RatingCount = &count
	}
	return listings
}
