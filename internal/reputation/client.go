// Package reputation implements the best-effort client for the secondary
// reputation/sentiment service. A failure here must never fail a search:
// every error path degrades to "no enrichment" and the caller receives a
// nil map.
package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/triporo/booking-api/internal/model"
)

// Client fetches aggregate reputation scores for batches of hotel ids.
// A nil Client (or one constructed with an empty base URL) is valid and
// always reports no data.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New constructs a reputation client. An empty baseURL disables the
// service; FetchScores then returns nil without any network call.
func New(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
	}
}

type scoresRequest struct {
	HotelIDs []string `json:"hotel_ids"`
}

type scoresResponse struct {
	Scores map[string]struct {
		Score       float64 `json:"score"`
		RatingCount int     `json:"rating_count"`
		ReviewCount int     `json:"review_count"`
	} `json:"scores"`
}

// FetchScores returns a map of hotel id to reputation record for every id
// the service knows about. Ids without data are simply absent from the
// map; absence means "unknown", which downstream code must not collapse
// into a zero score. All errors are logged and swallowed.
func (c *Client) FetchScores(ctx context.Context, ids []string) map[string]model.ReputationRecord {
	if c == nil || len(ids) == 0 {
		return nil
	}
	body, err := json.Marshal(scoresRequest{HotelIDs: ids})
	if err != nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scores", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("reputation: fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("reputation: fetch returned %d", resp.StatusCode)
		return nil
	}

	var sr scoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		log.Printf("reputation: decode failed: %v", err)
		return nil
	}

	out := make(map[string]model.ReputationRecord, len(sr.Scores))
	for id, s := range sr.Scores {
		out[id] = model.ReputationRecord{
			HotelID:     id,
			Score:       s.Score,
			RatingCount: s.RatingCount,
			ReviewCount: s.ReviewCount,
		}
	}
	return out
}
