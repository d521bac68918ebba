package rankings

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

	"github.com/tidwall/gjson"

	"github.com/localpulse/platform/internal/app/domain/competitor"
	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/pkg/logger"
)

const defaultApifyBaseURL = "https://api.apify.com/v2"

// Scraper supplies additional competitor results when the primary search
// comes back thin.
type Scraper interface {
	Scrape(ctx context.Context, keyword string, lat, lng float64, limit int) ([]competitor.Entry, error)
}

// ApifyClient runs the Google Maps scraper actor synchronously and reads its
// dataset items.
type ApifyClient struct {
	client  *http.Client
	baseURL string
	token   string
	actorID string
	log     *logger.Logger
}

var _ Scraper = (*ApifyClient)(nil)

// NewApifyClient constructs an Apify client for the given actor.
func NewApifyClient(client *http.Client, baseURL, token, actorID string, log *logger.Logger) (*ApifyClient, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("apify token required")
	}
	if actorID == "" {
		actorID = "compass~crawler-google-places"
	}
	if baseURL == "" {
		baseURL = defaultApifyBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse apify base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("apify")
	}
	return &ApifyClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		actorID: actorID,
		log:     log,
	}, nil
}

// Scrape runs the actor and maps its dataset items onto competitor entries.
func (c *ApifyClient) Scrape(ctx context.Context, keyword string, lat, lng float64, limit int) ([]competitor.Entry, error) {
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}
	if limit <= 0 {
		limit = 20
	}

	input := map[string]interface{}{
		"searchStringsArray": []string{keyword},
		"customGeolocation": map[string]interface{}{
			"type":        "Point",
			"coordinates": []float64{lng, lat},
		},
		"maxCrawledPlacesPerSearch": limit,
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode apify input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, url.PathEscape(c.actorID), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build apify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordOutboundRequest("apify", 0)
		return nil, fmt.Errorf("apify request: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordOutboundRequest("apify", resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read apify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("apify status %d", resp.StatusCode)
	}

	var entries []competitor.Entry
	gjson.ParseBytes(body).ForEach(func(_, item gjson.Result) bool {
		entries = append(entries, competitor.Entry{
			PlaceID:     item.Get("placeId").String(),
			Name:        item.Get("title").String(),
			Address:     item.Get("address").String(),
			Rating:      item.Get("totalScore").Float(),
			ReviewCount: int(item.Get("reviewsCount").Int()),
			Latitude:    item.Get("location.lat").Float(),
			Longitude:   item.Get("location.lng").Float(),
		})
		return true
	})
	return entries, nil
}
