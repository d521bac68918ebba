package reviews

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

	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/pkg/logger"
)

const defaultGBPBaseURL = "https://mybusiness.googleapis.com/v4"

// RemoteReview is a review as the GBP API reports it.
type RemoteReview struct {
	RemoteID       string
	Author         string
	AuthorPhotoURL string
	Rating         int
	Comment        string
	ReplyComment   string
	ReplyUpdatedAt time.Time
	CreateTime     time.Time
	UpdateTime     time.Time
}

// GBPClient is the Google Business Profile surface the service needs.
type GBPClient interface {
	ListReviews(ctx context.Context, gbpLocation string) ([]RemoteReview, error)
	UpsertReply(ctx context.Context, reviewName, comment string) error
	DeleteReply(ctx context.Context, reviewName string) error
}

// HTTPGBPClient calls the GBP reviews API over HTTP.
type HTTPGBPClient struct {
	client      *http.Client
	baseURL     string
	accessToken string
	log         *logger.Logger
}

var _ GBPClient = (*HTTPGBPClient)(nil)

// NewHTTPGBPClient constructs a GBP client. An empty baseURL selects the
// Google endpoint.
func NewHTTPGBPClient(client *http.Client, baseURL, accessToken string, log *logger.Logger) (*HTTPGBPClient, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("gbp access token required")
	}
	if baseURL == "" {
		baseURL = defaultGBPBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse gbp base url: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("gbp")
	}
	return &HTTPGBPClient{
		client:      client,
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		log:         log,
	}, nil
}

// ListReviews pages through the review list of a GBP location resource.
func (c *HTTPGBPClient) ListReviews(ctx context.Context, gbpLocation string) ([]RemoteReview, error) {
	if gbpLocation == "" {
		return nil, fmt.Errorf("gbp location is required")
	}

	var result []RemoteReview
	pageToken := ""
	for {
		path := "/" + gbpLocation + "/reviews"
		if pageToken != "" {
			path += "?pageToken=" + url.QueryEscape(pageToken)
		}
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		gjson.GetBytes(body, "reviews").ForEach(func(_, item gjson.Result) bool {
			result = append(result, remoteReviewFromJSON(item))
			return true
		})

		pageToken = gjson.GetBytes(body, "nextPageToken").String()
		if pageToken == "" {
			return result, nil
		}
	}
}

// UpsertReply creates or replaces the business reply on a review.
func (c *HTTPGBPClient) UpsertReply(ctx context.Context, reviewName, comment string) error {
	if reviewName == "" {
		return fmt.Errorf("review name is required")
	}
	payload, err := json.Marshal(map[string]string{"comment": comment})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, "/"+reviewName+"/reply", payload)
	return err
}

// DeleteReply removes the business reply from a review.
func (c *HTTPGBPClient) DeleteReply(ctx context.Context, reviewName string) error {
	if reviewName == "" {
		return fmt.Errorf("review name is required")
	}
	_, err := c.do(ctx, http.MethodDelete, "/"+reviewName+"/reply", nil)
	return err
}

func (c *HTTPGBPClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build gbp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordOutboundRequest("gbp", 0)
		return nil, fmt.Errorf("gbp request: %w", err)
	}
	defer resp.Body.Close()

	metrics.RecordOutboundRequest("gbp", resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gbp response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, &GBPError{Code: CodeTokenExpired, Message: gbpMessage(body)}
	case http.StatusForbidden:
		return nil, &GBPError{Code: CodePermissionDenied, Message: gbpMessage(body)}
	case http.StatusNotFound:
		return nil, &GBPError{Code: CodeReviewNotFound, Message: gbpMessage(body)}
	default:
		return nil, fmt.Errorf("gbp status %d: %s", resp.StatusCode, gbpMessage(body))
	}
}

func gbpMessage(body []byte) string {
	return gjson.GetBytes(body, "error.message").String()
}

// starRatings maps the GBP rating enum onto 1..5.
var starRatings = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

func remoteReviewFromJSON(item gjson.Result) RemoteReview {
	rev := RemoteReview{
		RemoteID:       item.Get("name").String(),
		Author:         item.Get("reviewer.displayName").String(),
		AuthorPhotoURL: item.Get("reviewer.profilePhotoUrl").String(),
		Rating:         starRatings[item.Get("starRating").String()],
		Comment:        item.Get("comment").String(),
		ReplyComment:   item.Get("reviewReply.comment").String(),
	}
	rev.CreateTime, _ = time.Parse(time.RFC3339, item.Get("createTime").String())
	rev.UpdateTime, _ = time.Parse(time.RFC3339, item.Get("updateTime").String())
	rev.ReplyUpdatedAt, _ = time.Parse(time.RFC3339, item.Get("reviewReply.updateTime").String())
	return rev
}

// CreateLocalPost publishes a local post on a GBP location and returns the
// post resource name.
func (c *HTTPGBPClient) CreateLocalPost(ctx context.Context, gbpLocation, summary string, mediaURLs []string) (string, error) {
	if gbpLocation == "" {
		return "", fmt.Errorf("gbp location is required")
	}
	post := map[string]interface{}{
		"languageCode": "en",
		"topicType":    "STANDARD",
		"summary":      summary,
	}
	if len(mediaURLs) > 0 {
		media := make([]map[string]string, 0, len(mediaURLs))
		for _, u := range mediaURLs {
			media = append(media, map[string]string{"mediaFormat": "PHOTO", "sourceUrl": u})
		}
		post["media"] = media
	}
	payload, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("encode local post: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/"+gbpLocation+"/localPosts", payload)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "name").String(), nil
}
