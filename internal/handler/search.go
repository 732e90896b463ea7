package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/pipeline"
	"github.com/triporo/booking-api/internal/provider"
)

// SearchHandler exposes the hotel search pipeline over HTTP.
type SearchHandler struct {
	Searcher *pipeline.Searcher
}

// NewSearchHandler constructs a SearchHandler. The searcher must be non-nil.
func NewSearchHandler(s *pipeline.Searcher) *SearchHandler {
	if s == nil {
		panic("nil searcher passed to NewSearchHandler")
	}
	return &SearchHandler{Searcher: s}
}

// SearchHotels handles GET /v1/search/hotels. Required query parameters:
// region, check_in, check_out. Optional: adults, rooms (default 1 each),
// price_min, price_max, min_beds, min_bedrooms, min_bathrooms,
// room_types and amenities (comma-separated), page, page_size.
// An empty result set is a 200 with zero items, never an error; only an
// authentication failure or the loss of every pricing batch yields 502.
func (h *SearchHandler) SearchHotels(c echo.Context) error {
	q := model.InventoryQuery{
		RegionCode: strings.ToUpper(strings.TrimSpace(c.QueryParam("region"))),
		CheckIn:    strings.TrimSpace(c.QueryParam("check_in")),
		CheckOut:   strings.TrimSpace(c.QueryParam("check_out")),
	}
	// An absent count falls back to its default; an explicitly supplied
	// one must be a positive integer or the request is rejected.
	for _, p := range []struct {
		name string
		dst  *int
		def  int
	}{
		{"adults", &q.Adults, 1},
		{"rooms", &q.Rooms, 1},
		{"page", &q.Page, 1},
		{"page_size", &q.PageSize, 8},
	} {
		v, err := intParam(c, p.name, p.def)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_query", "message": err.Error()})
		}
		*p.dst = v
	}
	if q.PageSize > 50 {
		q.PageSize = 50
	}
	q.PriceMin = floatParam(c, "price_min")
	q.PriceMax = floatParam(c, "price_max")
	q.MinBeds = intPtrParam(c, "min_beds")
	q.MinBedrooms = intPtrParam(c, "min_bedrooms")
	q.MinBathrooms = intPtrParam(c, "min_bathrooms")
	q.RoomTypes = csvParam(c, "room_types")
	q.Amenities = csvParam(c, "amenities")

	if err := q.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_query", "message": err.Error()})
	}

	res, err := h.Searcher.Search(c.Request().Context(), q)
	if err != nil {
		if errors.Is(err, provider.ErrAuthFailure) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider_auth_failed"})
		}
		if errors.Is(err, pipeline.ErrAllBatchesFailed) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider_unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search_failed", "message": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":      res.Listings,
		"total":     res.Total,
		"page":      res.Page,
		"page_size": res.PageSize,
	})
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}

func intPtrParam(c echo.Context, name string) *int {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func floatParam(c echo.Context, name string) *float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func csvParam(c echo.Context, name string) []string {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
