package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/provider"
)

// fakeProvider drives the pipeline without a network. Batching behavior
// mirrors the real client: ids are partitioned and each batch either
// prices or contributes nothing.
type fakeProvider struct {
	items       []model.RawInventoryItem
	priced      map[string][]model.RawOffer
	details     map[string]model.RawInventoryItem
	batchSize   int
	listErr     error
	failBatches bool
	priceCalls  int
	detailCalls int
}

func (f *fakeProvider) ListInventory(_ context.Context, _ string) ([]model.RawInventoryItem, error) {
	return f.items, f.listErr
}

func (f *fakeProvider) PriceInventoryBatched(_ context.Context, ids []string, _ provider.Stay) ([]model.RawInventoryItem, int, error) {
	f.priceCalls++
	batches := provider.Partition(ids, f.batchSize)
	if f.failBatches {
		return nil, len(batches), nil
	}
	out := make([]model.RawInventoryItem, 0, len(ids))
	for _, id := range ids {
		for _, item := range f.items {
			if item.HotelID == id {
				priced := item
				priced.Offers = f.priced[id]
				out = append(out, priced)
			}
		}
	}
	return out, 0, nil
}

func (f *fakeProvider) GetHotelDetail(_ context.Context, hotelID string) *model.RawInventoryItem {
	f.detailCalls++
	if d, ok := f.details[hotelID]; ok {
		return &d
	}
	return nil
}

func (f *fakeProvider) BatchCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + f.batchSize - 1) / f.batchSize
}

func offerAt(id string, total string) []model.RawOffer {
	return []model.RawOffer{{
		OfferID:         "OF-" + id,
		TotalPrice:      total,
		Currency:        "USD",
		RoomDescription: "Standard room, 1 queen bed",
		RoomType:        "STANDARD",
	}}
}

func TestSearchEndToEnd(t *testing.T) {
	// Ten raw items: three fail the noise filter, and of the seven that
	// survive, two are priced above the 150 cap.
	fp := &fakeProvider{batchSize: 50, priced: map[string][]model.RawOffer{}}
	prices := []string{"120", "95", "149.99", "80", "150", "260", "999"}
	for i, p := range prices {
		id := fmt.Sprintf("H%d", i)
		fp.items = append(fp.items, model.RawInventoryItem{
			HotelID:      id,
			Name:         fmt.Sprintf("Hotel %d", i),
			AddressLines: []string{fmt.Sprintf("%d Fifth Ave", i+1)},
		})
		fp.priced[id] = offerAt(id, p)
	}
	fp.items = append(fp.items,
		model.RawInventoryItem{HotelID: "N1", Name: "Test Hotel Alpha"},
		model.RawInventoryItem{HotelID: "N2", Name: "Property NYC 042"},
		model.RawInventoryItem{HotelID: "N3", Name: "Las Vegas Strip Resort"},
	)

	s := &Searcher{Provider: fp}
	q := model.InventoryQuery{
		RegionCode: "NYC",
		CheckIn:    "2025-08-20",
		CheckOut:   "2025-08-22",
		Adults:     2,
		Rooms:      1,
		PriceMax:   floatPtr(150),
	}

	res, err := s.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Listings) != 5 {
		t.Fatalf("got %d listings, want 5: %v", len(res.Listings), ids(res.Listings))
	}
	for _, l := range res.Listings {
		if l.PricePerNight > 150 {
			t.Errorf("listing %s priced %v above the requested cap", l.HotelID, l.PricePerNight)
		}
		if l.Address == "" {
			t.Errorf("listing %s has an empty address", l.HotelID)
		}
		if l.Rooms.Beds < 1 || l.Rooms.Bedrooms < 1 || l.Rooms.Bathrooms < 1 {
			t.Errorf("listing %s has a room count below 1: %+v", l.HotelID, l.Rooms)
		}
	}
}

func TestSearchEmptyRegion(t *testing.T) {
	s := &Searcher{Provider: &fakeProvider{batchSize: 50}}
	q := model.InventoryQuery{RegionCode: "NYC", CheckIn: "2025-08-20", CheckOut: "2025-08-22", Adults: 1, Rooms: 1}
	res, err := s.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("zero inventory must not be an error, got %v", err)
	}
	if len(res.Listings) != 0 {
		t.Errorf("got %d listings, want 0", len(res.Listings))
	}
}

func TestSearchAllBatchesFailed(t *testing.T) {
	fp := &fakeProvider{batchSize: 2, failBatches: true}
	for i := 0; i < 5; i++ {
		fp.items = append(fp.items, model.RawInventoryItem{HotelID: fmt.Sprintf("H%d", i), Name: fmt.Sprintf("Hotel %d", i)})
	}
	s := &Searcher{Provider: fp}
	q := model.InventoryQuery{RegionCode: "NYC", CheckIn: "2025-08-20", CheckOut: "2025-08-22", Adults: 1, Rooms: 1}
	_, err := s.Search(context.Background(), q)
	if !errors.Is(err, ErrAllBatchesFailed) {
		t.Errorf("err = %v, want ErrAllBatchesFailed", err)
	}
}

func TestSearchInvalidQuery(t *testing.T) {
	fp := &fakeProvider{batchSize: 50}
	s := &Searcher{Provider: fp}
	q := model.InventoryQuery{RegionCode: "NYC", CheckIn: "2025-08-22", CheckOut: "2025-08-20", Adults: 1, Rooms: 1}
	if _, err := s.Search(context.Background(), q); err == nil {
		t.Error("inverted date range must fail validation")
	}
	if fp.priceCalls != 0 {
		t.Error("an invalid query must not reach the provider")
	}
}

func TestSearchDetailAddressFallback(t *testing.T) {
	fp := &fakeProvider{
		batchSize: 50,
		priced: map[string][]model.RawOffer{
			"H0": offerAt("H0", "100"),
			"H1": offerAt("H1", "110"),
		},
		details: map[string]model.RawInventoryItem{
			"H0": {HotelID: "H0", AddressLines: []string{"742 Evergreen Terrace"}},
		},
	}
	fp.items = []model.RawInventoryItem{
		{HotelID: "H0", Name: "Hotel Zero"}, // no address in the pricing payload
		{HotelID: "H1", Name: "Hotel One", AddressLines: []string{"1 Main St"}},
	}
	s := &Searcher{Provider: fp}
	q := model.InventoryQuery{RegionCode: "NYC", CheckIn: "2025-08-20", CheckOut: "2025-08-22", Adults: 1, Rooms: 1}
	res, err := s.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	byID := map[string]string{}
	for _, l := range res.Listings {
		byID[l.HotelID] = l.Address
	}
	if byID["H0"] != "742 Evergreen Terrace" {
		t.Errorf("H0 address = %q, want the detail lookup's address", byID["H0"])
	}
	if byID["H1"] != "1 Main St" {
		t.Errorf("H1 address = %q, want the pricing payload's address", byID["H1"])
	}
	if fp.detailCalls != 1 {
		t.Errorf("detail lookup called %d times, want 1 (only for the addressless item)", fp.detailCalls)
	}
}

func TestSearchDropsUnavailableItems(t *testing.T) {
	fp := &fakeProvider{batchSize: 50, priced: map[string][]model.RawOffer{
		"H0": offerAt("H0", "100"),
		// H1 prices to an empty offer list: no availability, silently dropped.
	}}
	fp.items = []model.RawInventoryItem{
		{HotelID: "H0", Name: "Hotel Zero"},
		{HotelID: "H1", Name: "Hotel One"},
	}
	s := &Searcher{Provider: fp}
	q := model.InventoryQuery{RegionCode: "NYC", CheckIn: "2025-08-20", CheckOut: "2025-08-22", Adults: 1, Rooms: 1}
	res, err := s.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Listings) != 1 || res.Listings[0].HotelID != "H0" {
		t.Errorf("got %v, want only H0", ids(res.Listings))
	}
}
