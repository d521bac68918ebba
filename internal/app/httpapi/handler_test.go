package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/localpulse/platform/internal/app"
	"github.com/localpulse/platform/internal/app/events"
	"github.com/localpulse/platform/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	srv, _ := newTestServerApp(t)
	return srv
}

func newTestServerApp(t *testing.T) (*httptest.Server, *app.Application) {
	t.Helper()
	application, err := app.New(app.Stores{}, config.Config{}, nil)
	if err != nil {
		t.Fatalf("app.New returned error: %v", err)
	}
	srv := httptest.NewServer(NewHandler(application, nil))
	t.Cleanup(srv.Close)
	return srv, application
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func createTenant(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	var created struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants", map[string]string{
		"name":        "Blue Door Bakery",
		"owner_email": email,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create tenant status = %d", resp.StatusCode)
	}
	if created.ID == "" {
		t.Fatal("create tenant returned empty id")
	}
	return created.ID
}

func TestTenantLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createTenant(t, srv, "owner@example.com")

	var fetched struct {
		ID             string `json:"id"`
		OnboardingStep string `json:"onboarding_step"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/tenants/"+id, nil, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get tenant status = %d", resp.StatusCode)
	}
	if fetched.OnboardingStep != "business" {
		t.Fatalf("onboarding step = %q, want business", fetched.OnboardingStep)
	}

	var advanced struct {
		OnboardingStep string `json:"onboarding_step"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/tenants/"+id+"/onboarding", map[string]string{"step": "location"}, &advanced)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("advance onboarding status = %d", resp.StatusCode)
	}
	if advanced.OnboardingStep != "location" {
		t.Fatalf("onboarding step = %q, want location", advanced.OnboardingStep)
	}

	// Moving backwards is rejected.
	resp = doJSON(t, http.MethodPost, srv.URL+"/tenants/"+id+"/onboarding", map[string]string{"step": "business"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("backwards onboarding status = %d, want 400", resp.StatusCode)
	}

	var keyed struct {
		APIKey string `json:"api_key"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/tenants/"+id+"/apikey", nil, &keyed)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("issue apikey status = %d", resp.StatusCode)
	}
	if keyed.APIKey == "" {
		t.Fatal("issued api key is empty")
	}
}

func TestTenantNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/tenants/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestLocationScopedByTenant(t *testing.T) {
	srv := newTestServer(t)
	owner := createTenant(t, srv, "owner@example.com")
	other := createTenant(t, srv, "other@example.com")

	var loc struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants/"+owner+"/locations", map[string]interface{}{
		"name":    "Blue Door Bakery",
		"address": "12 Main St, Springfield",
	}, &loc)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create location status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/tenants/"+owner+"/locations/"+loc.ID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get location status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/tenants/"+other+"/locations/"+loc.ID, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-tenant get status = %d, want 403", resp.StatusCode)
	}
}

func TestPostScopedByTenant(t *testing.T) {
	srv := newTestServer(t)
	owner := createTenant(t, srv, "owner@example.com")
	other := createTenant(t, srv, "other@example.com")

	var post struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants/"+owner+"/posts", map[string]interface{}{
		"caption":  "Fresh sourdough every morning",
		"channels": []string{"gbp"},
	}, &post)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/tenants/"+other+"/posts/"+post.ID, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-tenant get post status = %d, want 403", resp.StatusCode)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants", map[string]string{
		"name":        "Blue Door Bakery",
		"owner_email": "owner@example.com",
		"bogus":       "field",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestReviewRequestRedirect(t *testing.T) {
	srv := newTestServer(t)
	tenant := createTenant(t, srv, "owner@example.com")

	var loc struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/locations", map[string]interface{}{
		"name":    "Blue Door Bakery",
		"address": "12 Main St, Springfield",
	}, &loc)

	var req struct {
		ID        string `json:"id"`
		ShortCode string `json:"short_code"`
		Status    string `json:"status"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/review-requests", map[string]string{
		"location_id":   loc.ID,
		"customer_name": "Ana",
		"channel":       "email",
		"destination":   "ana@example.com",
	}, &req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create review request status = %d", resp.StatusCode)
	}
	if req.ShortCode == "" {
		t.Fatal("review request has no short code")
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	redirect, err := client.Get(srv.URL + "/r/" + req.ShortCode)
	if err != nil {
		t.Fatalf("redirect request: %v", err)
	}
	defer redirect.Body.Close()
	if redirect.StatusCode != http.StatusFound {
		t.Fatalf("redirect status = %d, want 302", redirect.StatusCode)
	}
	if loc := redirect.Header.Get("Location"); loc == "" {
		t.Fatal("redirect has no Location header")
	}

	var reqs []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/tenants/"+tenant+"/review-requests", nil, &reqs)
	if len(reqs) != 1 || reqs[0].Status != "clicked" {
		t.Fatalf("request status after click = %+v, want clicked", reqs)
	}
}

func TestPostDraftAndPublishWithoutPublisher(t *testing.T) {
	srv := newTestServer(t)
	tenant := createTenant(t, srv, "owner@example.com")

	var post struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/posts", map[string]interface{}{
		"caption":  "Fresh sourdough every morning",
		"channels": []string{"gbp"},
	}, &post)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post status = %d", resp.StatusCode)
	}
	if post.Status != "draft" {
		t.Fatalf("post status = %q, want draft", post.Status)
	}

	var published struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/posts/"+post.ID+"/publish", nil, &published)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d", resp.StatusCode)
	}
	if published.Status != "failed" {
		t.Fatalf("published status = %q, want failed without a configured publisher", published.Status)
	}
	if published.Error == "" {
		t.Fatal("failed post carries no error")
	}
}

func TestCalendarRequiresWindow(t *testing.T) {
	srv := newTestServer(t)
	tenant := createTenant(t, srv, "owner@example.com")

	url := fmt.Sprintf("%s/tenants/%s/posts/calendar?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z", srv.URL, tenant)
	resp := doJSON(t, http.MethodGet, url, nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("inverted window status = %d, want 400", resp.StatusCode)
	}
}

func TestReviewSyncNotConnected(t *testing.T) {
	srv := newTestServer(t)
	tenant := createTenant(t, srv, "owner@example.com")

	var loc struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/locations", map[string]interface{}{
		"name":    "Blue Door Bakery",
		"address": "12 Main St, Springfield",
	}, &loc)

	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/locations/"+loc.ID+"/reviews/sync", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("sync unconnected location status = %d, want 400", resp.StatusCode)
	}
}

func TestAssistNotConfigured(t *testing.T) {
	srv := newTestServer(t)
	tenant := createTenant(t, srv, "owner@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/tenants/"+tenant+"/assist/caption", map[string]interface{}{
		"topic": "weekend specials",
	}, nil)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("assist status = %d, want 501", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	srv, application := newTestServerApp(t)
	tenant := createTenant(t, srv, "owner@example.com")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/tenants/" + tenant + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// Subscription registration races the dial returning; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for application.Hub.SubscriberCount(tenant) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	application.Hub.Publish(events.Event{
		Type:     events.TypeReviewSynced,
		TenantID: tenant,
		At:       time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt events.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != events.TypeReviewSynced {
		t.Fatalf("event type = %q, want %q", evt.Type, events.TypeReviewSynced)
	}
	if evt.TenantID != tenant {
		t.Fatalf("event tenant = %q, want %q", evt.TenantID, tenant)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}
