// Package places wraps the Google Places API surface the platform consumes:
// text search, place details and photo URLs.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/pkg/logger"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Place is the subset of a Places result the platform cares about.
type Place struct {
	PlaceID     string  `json:"place_id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PhotoRef    string  `json:"photo_ref,omitempty"`
}

// Searcher is the interface services depend on.
type Searcher interface {
	TextSearch(ctx context.Context, query string, lat, lng float64) ([]Place, error)
	Details(ctx context.Context, placeID string) (Place, error)
	PhotoURL(photoRef string, maxWidth int) string
}

// Client calls the Google Places REST API. Details responses are cached
// because rank refreshes enrich the same competitors repeatedly.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cache   Cache
	ttl     time.Duration
	log     *logger.Logger
}

var _ Searcher = (*Client)(nil)

// NewClient constructs a Places client. An empty baseURL selects the Google
// endpoint; tests point it at a local server.
func NewClient(client *http.Client, baseURL, apiKey string, cache Cache, log *logger.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("places api key required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse places base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = logger.NewDefault("places")
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   cache,
		ttl:     15 * time.Minute,
		log:     log,
	}, nil
}

// TextSearch runs a Places text search biased to the given coordinates.
func (c *Client) TextSearch(ctx context.Context, query string, lat, lng float64) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if lat != 0 || lng != 0 {
		params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
		params.Set("radius", "5000")
	}

	body, err := c.get(ctx, "/textsearch/json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	status := gjson.GetBytes(body, "status").String()
	if status != "OK" && status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places text search status %s", status)
	}

	var result []Place
	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		result = append(result, placeFromJSON(item))
		return true
	})
	return result, nil
}

// Details fetches a single place, consulting the cache first.
func (c *Client) Details(ctx context.Context, placeID string) (Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return Place{}, fmt.Errorf("place_id is required")
	}

	cacheKey := "places:details:" + placeID
	if cached, ok := c.cache.Get(ctx, cacheKey); ok {
		var place Place
		if err := json.Unmarshal([]byte(cached), &place); err == nil {
			return place, nil
		}
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,formatted_address,rating,user_ratings_total,geometry,photos")
	params.Set("key", c.apiKey)

	body, err := c.get(ctx, "/details/json?"+params.Encode())
	if err != nil {
		return Place{}, err
	}

	status := gjson.GetBytes(body, "status").String()
	if status != "OK" {
		return Place{}, fmt.Errorf("places details status %s", status)
	}

	place := placeFromJSON(gjson.GetBytes(body, "result"))
	if encoded, err := json.Marshal(place); err == nil {
		c.cache.Set(ctx, cacheKey, string(encoded), c.ttl)
	}
	return place, nil
}

// PhotoURL builds a photo fetch URL for a photo reference.
func (c *Client) PhotoURL(photoRef string, maxWidth int) string {
	if photoRef == "" {
		return ""
	}
	if maxWidth <= 0 {
		maxWidth = 400
	}
	params := url.Values{}
	params.Set("photo_reference", photoRef)
	params.Set("maxwidth", fmt.Sprintf("%d", maxWidth))
	params.Set("key", c.apiKey)
	return c.baseURL + "/photo?" + params.Encode()
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordOutboundRequest("places", 0)
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordOutboundRequest("places", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read places response: %w", err)
	}
	return body, nil
}

func placeFromJSON(item gjson.Result) Place {
	return Place{
		PlaceID:     item.Get("place_id").String(),
		Name:        item.Get("name").String(),
		Address:     item.Get("formatted_address").String(),
		Rating:      item.Get("rating").Float(),
		ReviewCount: int(item.Get("user_ratings_total").Int()),
		Latitude:    item.Get("geometry.location.lat").Float(),
		Longitude:   item.Get("geometry.location.lng").Float(),
		PhotoRef:    item.Get("photos.0.photo_reference").String(),
	}
}
