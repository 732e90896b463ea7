package pipeline

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/triporo/booking-api/internal/cache"
	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/provider"
)

// ErrAllBatchesFailed is returned when inventory existed for the region
// but every pricing batch failed. Unlike a single failed batch, which
// silently degrades to partial results, losing all of them means the
// search produced nothing and must surface as an error.
var ErrAllBatchesFailed = errors.New("pipeline: all pricing batches failed")

// InventoryProvider is the slice of the provider client the pipeline
// needs. Kept narrow so tests can drive the pipeline with a fake upstream.
type InventoryProvider interface {
	ListInventory(ctx context.Context, region string) ([]model.RawInventoryItem, error)
	PriceInventoryBatched(ctx context.Context, ids []string, stay provider.Stay) ([]model.RawInventoryItem, int, error)
	GetHotelDetail(ctx context.Context, hotelID string) *model.RawInventoryItem
	BatchCount(n int) int
}

// ReputationSource supplies best-effort reputation scores; nil results
// mean "no enrichment" and are always acceptable.
type ReputationSource interface {
	FetchScores(ctx context.Context, ids []string) map[string]model.ReputationRecord
}

// SearchResult is one page of a search plus the totals the pagination UI
// needs. Total counts the capped, filtered set, not the requested page.
type SearchResult struct {
	Listings  []model.NormalizedListing `json:"data"`
	Total     int                       `json:"total"`
	Page      int                       `json:"page"`
	PageSize  int                       `json:"page_size"`
	FromCache bool                      `json:"-"`
}

// Searcher orchestrates the search pipeline: cache lookup, inventory
// listing, noise filtering, batched pricing, normalization, reputation
// enrichment, local filters and pagination.
type Searcher struct {
	Provider   InventoryProvider
	Reputation ReputationSource
	Cache      *cache.ResultCache
	Timeout    time.Duration
}

// Search runs the full pipeline for one query. The error taxonomy is
// deliberately coarse: authentication failures and a total pricing loss
// fail the search, everything else degrades (a failed batch becomes a
// smaller result set, a reputation outage becomes unenriched listings,
// zero inventory becomes an empty result).
func (s *Searcher) Search(ctx context.Context, q model.InventoryQuery) (SearchResult, error) {
	if err := q.Validate(); err != nil {
		return SearchResult{}, err
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 8
	}

	fp := q.Fingerprint()
	if cached, ok := s.Cache.Get(ctx, fp); ok {
		return SearchResult{
			Listings:  Paginate(cached, pageSize, page),
			Total:     cappedTotal(len(cached), pageSize),
			Page:      page,
			PageSize:  pageSize,
			FromCache: true,
		}, nil
	}

	items, err := s.Provider.ListInventory(ctx, q.RegionCode)
	if err != nil {
		return SearchResult{}, err
	}
	if len(items) == 0 {
		// No inventory for the region is an empty result, not an error.
		return SearchResult{Listings: []model.NormalizedListing{}, Page: page, PageSize: pageSize}, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if noisy, rule := IsNoise(item.Name, joinAddressLines(item.AddressLines), q.RegionCode); noisy {
			log.Printf("pipeline: excluded %s (%q) by rule %s", item.HotelID, item.Name, rule)
			continue
		}
		ids = append(ids, item.HotelID)
	}
	if len(ids) == 0 {
		return SearchResult{Listings: []model.NormalizedListing{}, Page: page, PageSize: pageSize}, nil
	}

	stay := provider.Stay{
		CheckIn:   q.CheckIn,
		CheckOut:  q.CheckOut,
		Adults:    q.Adults,
		Rooms:     q.Rooms,
		Amenities: q.Amenities,
	}
	priced, failedBatches, err := s.Provider.PriceInventoryBatched(ctx, ids, stay)
	if err != nil {
		return SearchResult{}, err
	}
	if total := s.Provider.BatchCount(len(ids)); total > 0 && failedBatches == total {
		return SearchResult{}, ErrAllBatchesFailed
	}

	listings := s.normalize(ctx, priced, q)

	if s.Reputation != nil && len(listings) > 0 {
		lids := make([]string, 0, len(listings))
		for _, l := range listings {
			lids = append(lids, l.HotelID)
		}
		listings = MergeReputation(listings, s.Reputation.FetchScores(ctx, lids))
	}

	listings = ApplyFilters(listings, q)
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].PricePerNight < listings[j].PricePerNight
	})

	s.Cache.Set(ctx, fp, listings)

	return SearchResult{
		Listings: Paginate(listings, pageSize, page),
		Total:    cappedTotal(len(listings), pageSize),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// normalize turns priced raw items into listings. Items without offers
// (no availability) are dropped; everything else comes out with every
// display field populated, heuristic defaults standing in for whatever
// the provider omitted. An item whose pricing response carries no address
// gets one best-effort detail lookup before the region default applies,
// since the detail record is the most authoritative address source.
func (s *Searcher) normalize(ctx context.Context, items []model.RawInventoryItem, q model.InventoryQuery) []model.NormalizedListing {
	listings := make([]model.NormalizedListing, 0, len(items))
	for _, item := range items {
		if len(item.Offers) == 0 {
			continue
		}
		var detail *model.RawInventoryItem
		if joinAddressLines(item.AddressLines) == "" {
			detail = s.Provider.GetHotelDetail(ctx, item.HotelID)
		}
		best := lowestOffer(item.Offers)
		roomTypes := make([]string, 0, len(item.Offers))
		for _, o := range item.Offers {
			if o.RoomType != "" {
				roomTypes = append(roomTypes, o.RoomType)
			}
		}
		lat, lng := ResolveGeocode(item, q.RegionCode)
		listings = append(listings, model.NormalizedListing{
			HotelID:         item.HotelID,
			Title:           item.Name,
			Address:         ResolveAddress(item, detail, q.RegionCode),
			Latitude:        lat,
			Longitude:       lng,
			OfferID:         best.OfferID,
			RoomDescription: best.RoomDescription,
			RoomType:        best.RoomType,
			Rooms:           ExtractRoomInfo(best),
			PricePerNight:   NormalizePrice(best.TotalPrice, q.RegionCode),
			Currency:        best.Currency,
			RoomTypes:       roomTypes,
		})
	}
	return listings
}

// lowestOffer picks the offer with the smallest parsable total price,
// falling back to the first offer when none parse.
func lowestOffer(offers []model.RawOffer) model.RawOffer {
	best := offers[0]
	bestPrice := -1.0
	for _, o := range offers {
		p, err := strconv.ParseFloat(strings.TrimSpace(o.TotalPrice), 64)
		if err != nil || p <= 0 {
			continue
		}
		if bestPrice < 0 || p < bestPrice {
			best = o
			bestPrice = p
		}
	}
	return best
}

func cappedTotal(n, pageSize int) int {
	if limit := pageSize * maxPages; n > limit {
		return limit
	}
	return n
}
