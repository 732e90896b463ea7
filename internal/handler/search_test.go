package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/pipeline"
	"github.com/triporo/booking-api/internal/provider"
)

// emptyProvider satisfies the pipeline's provider interface with a region
// that has no inventory, which is enough for handler-level tests.
type emptyProvider struct{}

func (emptyProvider) ListInventory(context.Context, string) ([]model.RawInventoryItem, error) {
	return nil, nil
}

func (emptyProvider) PriceInventoryBatched(context.Context, []string, provider.Stay) ([]model.RawInventoryItem, int, error) {
	return nil, 0, nil
}

func (emptyProvider) GetHotelDetail(context.Context, string) *model.RawInventoryItem { return nil }

func (emptyProvider) BatchCount(int) int { return 0 }

func searchRequest(t *testing.T, query string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/search/hotels?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSearchHotelsRejectsInvalidCounts(t *testing.T) {
	h := NewSearchHandler(&pipeline.Searcher{Provider: emptyProvider{}})
	valid := "region=NYC&check_in=2025-08-20&check_out=2025-08-22"

	tests := []struct {
		name  string
		query string
	}{
		{"zero adults", valid + "&adults=0"},
		{"negative adults", valid + "&adults=-2"},
		{"non-numeric adults", valid + "&adults=two"},
		{"zero rooms", valid + "&rooms=0"},
		{"zero page", valid + "&page=0"},
		{"non-numeric page size", valid + "&page_size=many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := searchRequest(t, tt.query)
			if err := h.SearchHotels(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "invalid_query") {
				t.Errorf("body = %s, want an invalid_query error", rec.Body.String())
			}
		})
	}
}

func TestSearchHotelsDefaultsOmittedCounts(t *testing.T) {
	h := NewSearchHandler(&pipeline.Searcher{Provider: emptyProvider{}})
	c, rec := searchRequest(t, "region=NYC&check_in=2025-08-20&check_out=2025-08-22")
	if err := h.SearchHotels(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (omitted counts take defaults)", rec.Code)
	}
}

func TestSearchHotelsMissingRegion(t *testing.T) {
	h := NewSearchHandler(&pipeline.Searcher{Provider: emptyProvider{}})
	c, rec := searchRequest(t, "check_in=2025-08-20&check_out=2025-08-22")
	if err := h.SearchHotels(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
