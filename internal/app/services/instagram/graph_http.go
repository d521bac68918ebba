package instagram

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
	"golang.org/x/time/rate"

	"github.com/localpulse/platform/internal/app/metrics"
	"github.com/localpulse/platform/pkg/logger"
)

const (
	defaultGraphHost    = "https://graph.instagram.com"
	fallbackGraphHost   = "https://graph.facebook.com"
	graphVersion        = "v19.0"
	longLivedTokenGrant = "ig_exchange_token"
)

// sendBackoffs are the fixed waits between message send attempts.
var sendBackoffs = []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond, 3 * time.Second}

// TokenResult is the outcome of a token exchange or refresh.
type TokenResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// RemoteMedia is a media object as the Graph API reports it.
type RemoteMedia struct {
	RemoteID      string
	MediaType     string
	MediaURL      string
	Permalink     string
	Caption       string
	LikeCount     int
	CommentsCount int
	Timestamp     time.Time
}

// RemoteConversation is a DM thread page from the Graph API.
type RemoteConversation struct {
	RemoteID      string
	ParticipantID string
	Participant   string
	UpdatedTime   time.Time
}

// GraphClient is the Graph API surface the service needs.
type GraphClient interface {
	ExchangeCode(ctx context.Context, code string) (TokenResult, string, error)
	LongLivedToken(ctx context.Context, shortToken string) (TokenResult, error)
	RefreshToken(ctx context.Context, token string) (TokenResult, error)
	Profile(ctx context.Context, token string) (igUserID, username string, err error)
	ListMedia(ctx context.Context, igUserID, token, cursor string) ([]RemoteMedia, string, error)
	ListConversations(ctx context.Context, igUserID, token string) ([]RemoteConversation, error)
	SendMessage(ctx context.Context, igUserID, token, recipientIGSID, text string) (string, error)
	PublishMedia(ctx context.Context, igUserID, token, imageURL, caption string) (string, error)
}

// HTTPGraphClient calls the Instagram Graph API. Message sends retry with
// fixed backoff and fall back to the Facebook graph host on transport errors.
type HTTPGraphClient struct {
	client       *http.Client
	host         string
	fallbackHost string
	appID        string
	appSecret    string
	redirectURI  string
	limiter      *rate.Limiter
	sleep        func(time.Duration)
	log          *logger.Logger
}

var _ GraphClient = (*HTTPGraphClient)(nil)

// NewHTTPGraphClient constructs a Graph API client. An empty host selects
// graph.instagram.com.
func NewHTTPGraphClient(client *http.Client, host, appID, appSecret, redirectURI string, log *logger.Logger) (*HTTPGraphClient, error) {
	appID = strings.TrimSpace(appID)
	appSecret = strings.TrimSpace(appSecret)
	if appID == "" || appSecret == "" {
		return nil, fmt.Errorf("instagram app credentials required")
	}
	fallback := fallbackGraphHost
	if host == "" {
		host = defaultGraphHost
	} else {
		// Custom host (tests) keeps both legs on the same server.
		fallback = host
	}
	if _, err := url.Parse(host); err != nil {
		return nil, fmt.Errorf("parse graph host: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("instagram-graph")
	}
	return &HTTPGraphClient{
		client:       client,
		host:         strings.TrimRight(host, "/"),
		fallbackHost: strings.TrimRight(fallback, "/"),
		appID:        appID,
		appSecret:    appSecret,
		redirectURI:  redirectURI,
		limiter:      rate.NewLimiter(rate.Limit(4), 8),
		sleep:        time.Sleep,
		log:          log,
	}, nil
}

// ExchangeCode trades an OAuth code for a short-lived token and the user ID.
func (c *HTTPGraphClient) ExchangeCode(ctx context.Context, code string) (TokenResult, string, error) {
	if code == "" {
		return TokenResult{}, "", fmt.Errorf("code is required")
	}
	form := url.Values{}
	form.Set("client_id", c.appID)
	form.Set("client_secret", c.appSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.redirectURI)
	form.Set("code", code)

	body, err := c.do(ctx, http.MethodPost, c.host+"/oauth/access_token", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return TokenResult{}, "", err
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return TokenResult{}, "", fmt.Errorf("token exchange returned no access token")
	}
	return TokenResult{AccessToken: token, TokenType: "bearer"},
		gjson.GetBytes(body, "user_id").String(), nil
}

// LongLivedToken upgrades a short-lived token to a ~60 day one.
func (c *HTTPGraphClient) LongLivedToken(ctx context.Context, shortToken string) (TokenResult, error) {
	params := url.Values{}
	params.Set("grant_type", longLivedTokenGrant)
	params.Set("client_secret", c.appSecret)
	params.Set("access_token", shortToken)
	return c.tokenRequest(ctx, c.host+"/access_token?"+params.Encode())
}

// RefreshToken extends a long-lived token before it expires.
func (c *HTTPGraphClient) RefreshToken(ctx context.Context, token string) (TokenResult, error) {
	params := url.Values{}
	params.Set("grant_type", "ig_refresh_token")
	params.Set("access_token", token)
	return c.tokenRequest(ctx, c.host+"/refresh_access_token?"+params.Encode())
}

func (c *HTTPGraphClient) tokenRequest(ctx context.Context, endpoint string) (TokenResult, error) {
	body, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return TokenResult{}, err
	}
	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return TokenResult{}, fmt.Errorf("token request returned no access token")
	}
	return TokenResult{
		AccessToken: token,
		TokenType:   gjson.GetBytes(body, "token_type").String(),
		ExpiresIn:   time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second,
	}, nil
}

// Profile returns the IG user ID and username for a token.
func (c *HTTPGraphClient) Profile(ctx context.Context, token string) (string, string, error) {
	params := url.Values{}
	params.Set("fields", "id,username")
	params.Set("access_token", token)
	body, err := c.do(ctx, http.MethodGet, c.host+"/me?"+params.Encode(), nil, "")
	if err != nil {
		return "", "", err
	}
	return gjson.GetBytes(body, "id").String(), gjson.GetBytes(body, "username").String(), nil
}

// ListMedia returns one page of the user's media plus the next cursor.
func (c *HTTPGraphClient) ListMedia(ctx context.Context, igUserID, token, cursor string) ([]RemoteMedia, string, error) {
	params := url.Values{}
	params.Set("fields", "id,media_type,media_url,permalink,caption,like_count,comments_count,timestamp")
	params.Set("access_token", token)
	if cursor != "" {
		params.Set("after", cursor)
	}
	body, err := c.do(ctx, http.MethodGet, c.host+"/"+igUserID+"/media?"+params.Encode(), nil, "")
	if err != nil {
		return nil, "", err
	}

	var result []RemoteMedia
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		media := RemoteMedia{
			RemoteID:      item.Get("id").String(),
			MediaType:     item.Get("media_type").String(),
			MediaURL:      item.Get("media_url").String(),
			Permalink:     item.Get("permalink").String(),
			Caption:       item.Get("caption").String(),
			LikeCount:     int(item.Get("like_count").Int()),
			CommentsCount: int(item.Get("comments_count").Int()),
		}
		media.Timestamp, _ = time.Parse("2006-01-02T15:04:05-0700", item.Get("timestamp").String())
		result = append(result, media)
		return true
	})
	return result, gjson.GetBytes(body, "paging.cursors.after").String(), nil
}

// ListConversations returns the account's DM threads.
func (c *HTTPGraphClient) ListConversations(ctx context.Context, igUserID, token string) ([]RemoteConversation, error) {
	params := url.Values{}
	params.Set("fields", "id,participants,updated_time")
	params.Set("platform", "instagram")
	params.Set("access_token", token)
	body, err := c.do(ctx, http.MethodGet, c.host+"/"+igUserID+"/conversations?"+params.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	var result []RemoteConversation
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		conv := RemoteConversation{RemoteID: item.Get("id").String()}
		item.Get("participants.data").ForEach(func(_, p gjson.Result) bool {
			if p.Get("id").String() != igUserID {
				conv.ParticipantID = p.Get("id").String()
				conv.Participant = p.Get("username").String()
				return false
			}
			return true
		})
		conv.UpdatedTime, _ = time.Parse("2006-01-02T15:04:05-0700", item.Get("updated_time").String())
		result = append(result, conv)
		return true
	})
	return result, nil
}

// SendMessage delivers a DM to a recipient IGSID. It retries transient
// failures with fixed backoff and, on a transport error, retries the request
// against the Facebook graph host. HTTP 4xx responses never retry.
func (c *HTTPGraphClient) SendMessage(ctx context.Context, igUserID, token, recipientIGSID, text string) (string, error) {
	if recipientIGSID == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("message text is required")
	}

	form := url.Values{}
	form.Set("recipient", fmt.Sprintf(`{"id":"%s"}`, recipientIGSID))
	form.Set("message", fmt.Sprintf(`{"text":%s}`, quoteJSON(text)))
	form.Set("access_token", token)
	path := "/" + graphVersion + "/" + igUserID + "/messages"

	host := c.host
	var lastErr error
	for attempt := 0; attempt <= len(sendBackoffs); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			c.sleep(sendBackoffs[attempt-1])
		}

		body, err := c.do(ctx, http.MethodPost, host+path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
		if err == nil {
			return gjson.GetBytes(body, "message_id").String(), nil
		}
		lastErr = err

		var httpErr *graphHTTPError
		switch {
		case isTransport(err):
			// Transport failure: switch hosts for the remaining attempts.
			host = c.fallbackHost
		case asGraphHTTPError(err, &httpErr) && httpErr.status >= 400 && httpErr.status < 500:
			return "", err
		}
	}
	return "", fmt.Errorf("send message failed after %d attempts: %w", len(sendBackoffs)+1, lastErr)
}

// PublishMedia creates and publishes a single-image media container.
func (c *HTTPGraphClient) PublishMedia(ctx context.Context, igUserID, token, imageURL, caption string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("image url is required")
	}

	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	form.Set("access_token", token)
	body, err := c.do(ctx, http.MethodPost, c.host+"/"+igUserID+"/media", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}
	containerID := gjson.GetBytes(body, "id").String()
	if containerID == "" {
		return "", fmt.Errorf("media container has no id")
	}

	form = url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", token)
	body, err = c.do(ctx, http.MethodPost, c.host+"/"+igUserID+"/media_publish", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", fmt.Errorf("publish media container: %w", err)
	}
	return gjson.GetBytes(body, "id").String(), nil
}

// graphHTTPError marks a non-2xx Graph response, keeping the status for
// retry decisions.
type graphHTTPError struct {
	status  int
	message string
}

func (e *graphHTTPError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("graph status %d", e.status)
	}
	return fmt.Sprintf("graph status %d: %s", e.status, e.message)
}

func asGraphHTTPError(err error, target **graphHTTPError) bool {
	for err != nil {
		if ge, ok := err.(*graphHTTPError); ok {
			*target = ge
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// transportError marks a failure before any HTTP status was received.
type transportError struct{ err error }

func (e *transportError) Error() string { return "graph transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransport(err error) bool {
	for err != nil {
		if _, ok := err.(*transportError); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func (c *HTTPGraphClient) do(ctx context.Context, method, endpoint string, payload io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordOutboundRequest("instagram", 0)
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	metrics.RecordOutboundRequest("instagram", resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read graph response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &graphHTTPError{
			status:  resp.StatusCode,
			message: gjson.GetBytes(body, "error.message").String(),
		}
	}
	return body, nil
}

func quoteJSON(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(out)
}
