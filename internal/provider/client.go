package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/triporo/booking-api/internal/model"
	"github.com/triporo/booking-api/internal/utils"
)

// ErrAuthFailure is returned when the token endpoint rejects the client
// credentials. It is fatal for the whole search; callers must not retry
// without backoff.
var ErrAuthFailure = errors.New("provider: authentication failed")

// Token is a bearer token for the inventory API together with its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// tokenSkew is how long before the nominal expiry a cached token is
// considered stale and refreshed.
const tokenSkew = 30 * time.Second

// Client talks to the upstream inventory API. It caches the bearer token
// until shortly before expiry and throttles all requests through a shared
// rate limiter so that batched pricing fan-out stays within the
// provider's quota. A single Client is safe for concurrent use.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	batchSize    int
	httpc        *http.Client
	limiter      *rate.Limiter

	mu    sync.Mutex
	token Token
}

// New constructs a Client for the given API base URL and credentials.
// batchSize bounds how many hotel ids one pricing request may carry;
// values below 1 fall back to 50.
func New(baseURL, clientID, clientSecret string, batchSize int) *Client {
	if batchSize < 1 {
		batchSize = 50
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		batchSize:    batchSize,
		httpc:        &http.Client{Timeout: 15 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(8), 12),
	}
}

// Authenticate requests a fresh token from the provider's OAuth
// client-credentials endpoint. A non-2xx response yields ErrAuthFailure
// immediately; transient transport errors are retried with backoff.
func (c *Client) Authenticate(ctx context.Context) (Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	var tok Token
	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			// Rejected credentials are not retryable.
			return fmt.Errorf("%w: status %d: %s", ErrAuthFailure, resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return fmt.Errorf("decode token response: %w", err)
		}
		if tr.AccessToken == "" {
			return fmt.Errorf("%w: empty access token", ErrAuthFailure)
		}
		tok = Token{
			AccessToken: tr.AccessToken,
			ExpiresAt:   time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second),
		}
		return nil
	}

	var rejected error
	err := utils.RetryWithBackoff(ctx, 3, func() error {
		err := attempt()
		if errors.Is(err, ErrAuthFailure) {
			// Short-circuit the retry loop: repeating rejected
			// credentials only burns quota. The rejection, with the
			// provider's status and body, is still what the caller gets.
			rejected = err
			return nil
		}
		return err
	})
	if err != nil {
		return Token{}, err
	}
	if rejected != nil {
		return Token{}, rejected
	}
	return tok, nil
}

// bearer returns a valid cached token, authenticating when the cache is
// empty or within tokenSkew of expiry.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()
	if cached.AccessToken != "" && time.Now().UTC().Before(cached.ExpiresAt.Add(-tokenSkew)) {
		return cached.AccessToken, nil
	}
	tok, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
	return tok.AccessToken, nil
}

// get issues an authenticated GET and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider: %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// ListInventory returns every property the provider files under the given
// region code, without pricing. Zero items is a valid result (the region
// simply has no inventory), not an error.
func (c *Client) ListInventory(ctx context.Context, region string) ([]model.RawInventoryItem, error) {
	params := url.Values{"cityCode": {region}}
	var lr hotelListResponse
	if err := c.get(ctx, "/v1/reference-data/hotels", params, &lr); err != nil {
		return nil, err
	}
	items := make([]model.RawInventoryItem, 0, len(lr.Data))
	for _, h := range lr.Data {
		items = append(items, h.toModel())
	}
	return items, nil
}

// PriceInventory prices one batch of hotel ids for the given stay. The
// provider accepts the ids comma-joined. Entries that come back without
// offers signal "no availability" and are returned as-is; the pipeline
// decides what to do with them.
func (c *Client) PriceInventory(ctx context.Context, ids []string, stay Stay) ([]model.RawInventoryItem, error) {
	params := url.Values{
		"hotelIds":     {strings.Join(ids, ",")},
		"checkInDate":  {stay.CheckIn},
		"checkOutDate": {stay.CheckOut},
		"adults":       {strconv.Itoa(stay.Adults)},
		"rooms":        {strconv.Itoa(stay.Rooms)},
	}
	if len(stay.Amenities) > 0 {
		params.Set("amenities", strings.Join(stay.Amenities, ","))
	}
	var or offersResponse
	if err := c.get(ctx, "/v1/shopping/hotel-offers", params, &or); err != nil {
		return nil, err
	}
	items := make([]model.RawInventoryItem, 0, len(or.Data))
	for _, e := range or.Data {
		items = append(items, e.toModel())
	}
	return items, nil
}

// GetHotelDetail fetches a hotel's detail record, used by the address
// resolver as the most authoritative address source. The lookup is
// best-effort: a failure returns nil and the caller falls back to the
// address embedded in the pricing response.
func (c *Client) GetHotelDetail(ctx context.Context, hotelID string) *model.RawInventoryItem {
	params := url.Values{"hotelId": {hotelID}}
	var lr hotelListResponse
	if err := c.get(ctx, "/v1/reference-data/hotels/by-id", params, &lr); err != nil || len(lr.Data) == 0 {
		return nil
	}
	item := lr.Data[0].toModel()
	return &item
}
