// Package places is a small client for the Google Places API (New): text
// search and place details with field masks.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const DefaultBaseURL = "https://places.googleapis.com"

const (
	defaultTimeout       = 10 * time.Second
	defaultCacheTTL      = 24 * time.Hour
	cacheCleanupInterval = 48 * time.Hour
)

// Field masks used by the maintenance commands.
var (
	SearchIDFields       = []string{"id", "displayName"}
	SearchLocationFields = []string{"id", "location"}
	SearchRatingFields   = []string{"id", "displayName", "rating", "userRatingCount"}
	RatingDetailFields   = []string{"id", "rating", "userRatingCount"}
	WebsiteDetailFields  = []string{"id", "websiteUri"}
)

// ExtendedFields is the details mask for a full Google enrichment.
var ExtendedFields = []string{
	"id",
	"internationalPhoneNumber",
	"websiteUri",
	"dineIn",
	"takeout",
	"delivery",
	"servesBreakfast",
	"servesLunch",
	"servesDinner",
	"servesBrunch",
	"outdoorSeating",
	"liveMusic",
	"types",
	"primaryType",
	"primaryTypeDisplayName",
	"photos",
	"reservable",
	"businessStatus",
	"regularOpeningHours",
	"currentOpeningHours",
	"parkingOptions",
	"priceLevel",
	"paymentOptions",
	"accessibilityOptions",
	"allowsDogs",
	"editorialSummary",
	"generativeSummary",
}

// APIError is a non-200 response from the Places API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("places api error (%d): %s", e.Status, e.Message)
}

// Client calls the Places API. Search results are cached per query and mask
// for the lifetime of the client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   *cache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default 10s-timeout HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCacheTTL sets how long search results stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = cache.New(ttl, cacheCleanupInterval) }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   cache.New(defaultCacheTTL, cacheCleanupInterval),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildQuery joins the non-empty parts of a text search query with spaces.
func BuildQuery(name, city, state, address string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{name, city, state, address} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func getCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += ":" + fmt.Sprintf("%v", param)
	}
	return key
}

// SearchText returns the first place matching query, or nil when there is
// none. fields are given without the "places." prefix.
func (c *Client) SearchText(ctx context.Context, query string, fields ...string) (*Place, error) {
	mask := prefixed(fields)
	key := getCacheKey("search", query, mask)
	if v, ok := c.cache.Get(key); ok {
		return v.(*Place), nil
	}

	payload := map[string]any{
		"textQuery":      query,
		"maxResultCount": 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Places []Place `json:"places"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/v1/places:searchText", mask, body, &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var place *Place
	if len(result.Places) > 0 {
		place = &result.Places[0]
	}
	c.cache.SetDefault(key, place)
	return place, nil
}

// Details fetches one place by id with the given field mask.
func (c *Client) Details(ctx context.Context, id string, fields ...string) (*Place, error) {
	var place Place
	endpoint := c.baseURL + "/v1/places/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, endpoint, strings.Join(fields, ","), nil, &place); err != nil {
		return nil, fmt.Errorf("details %s: %w", id, err)
	}
	return &place, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, mask string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", mask)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func prefixed(fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = "places." + f
	}
	return strings.Join(out, ",")
}
