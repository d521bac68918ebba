package instagram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newGraphClient(t *testing.T, server *httptest.Server) *HTTPGraphClient {
	t.Helper()
	client, err := NewHTTPGraphClient(server.Client(), server.URL, "app-1", "secret", "https://app.local/callback", nil)
	if err != nil {
		t.Fatalf("NewHTTPGraphClient returned error: %v", err)
	}
	client.sleep = func(time.Duration) {}
	return client
}

func TestExchangeCodeAndLongLivedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/access_token":
			if r.Method != http.MethodPost {
				t.Fatalf("expected POST, got %s", r.Method)
			}
			w.Write([]byte(`{"access_token":"short-1","user_id":"17841400000000000"}`))
		case "/access_token":
			if r.URL.Query().Get("grant_type") != "ig_exchange_token" {
				t.Fatalf("unexpected grant type %s", r.URL.Query().Get("grant_type"))
			}
			w.Write([]byte(`{"access_token":"long-1","token_type":"bearer","expires_in":5184000}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newGraphClient(t, server)
	ctx := context.Background()

	short, userID, err := client.ExchangeCode(ctx, "code-1")
	if err != nil {
		t.Fatalf("ExchangeCode returned error: %v", err)
	}
	if short.AccessToken != "short-1" || userID != "17841400000000000" {
		t.Fatalf("unexpected exchange result: %+v %s", short, userID)
	}

	long, err := client.LongLivedToken(ctx, short.AccessToken)
	if err != nil {
		t.Fatalf("LongLivedToken returned error: %v", err)
	}
	if long.AccessToken != "long-1" || long.ExpiresIn != 5184000*time.Second {
		t.Fatalf("unexpected long-lived result: %+v", long)
	}
}

func TestListMediaReturnsCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			w.Write([]byte(`{"data":[{"id":"m1","media_type":"IMAGE","permalink":"https://ig/p/1","like_count":10,"comments_count":2,"timestamp":"2026-08-01T10:00:00+0000"}],"paging":{"cursors":{"after":"c2"}}}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":"m2","media_type":"VIDEO"}]}`))
	}))
	defer server.Close()

	client := newGraphClient(t, server)
	ctx := context.Background()

	page, next, err := client.ListMedia(ctx, "ig-1", "tok", "")
	if err != nil {
		t.Fatalf("ListMedia returned error: %v", err)
	}
	if len(page) != 1 || page[0].RemoteID != "m1" || page[0].LikeCount != 10 {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if page[0].Timestamp.IsZero() {
		t.Fatalf("expected timestamp parsed")
	}
	if next != "c2" {
		t.Fatalf("expected cursor c2, got %q", next)
	}

	page, next, err = client.ListMedia(ctx, "ig-1", "tok", next)
	if err != nil {
		t.Fatalf("second ListMedia returned error: %v", err)
	}
	if len(page) != 1 || page[0].RemoteID != "m2" || next != "" {
		t.Fatalf("unexpected second page: %+v %q", page, next)
	}
}

func TestSendMessageRetriesTransientFailures(t *testing.T) {
	var calls int
	var waits []time.Duration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"transient"}}`))
			return
		}
		w.Write([]byte(`{"message_id":"mid-9"}`))
	}))
	defer server.Close()

	client := newGraphClient(t, server)
	client.sleep = func(d time.Duration) { waits = append(waits, d) }

	mid, err := client.SendMessage(context.Background(), "ig-1", "tok", "igsid-1", "hello")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if mid != "mid-9" {
		t.Fatalf("unexpected message id %q", mid)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("unexpected waits: %v", waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d: expected %v, got %v", i, want[i], waits[i])
		}
	}
}

func TestSendMessageEscapesControlCharacters(t *testing.T) {
	text := "line one\r\nline two\ttabbed \"quoted\" back\\slash"
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("message")), &msg); err != nil {
			t.Fatalf("message is not valid JSON: %v", err)
		}
		got = msg.Text
		w.Write([]byte(`{"message_id":"mid-3"}`))
	}))
	defer server.Close()

	client := newGraphClient(t, server)
	if _, err := client.SendMessage(context.Background(), "ig-1", "tok", "igsid-1", text); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if got != text {
		t.Fatalf("text round-tripped as %q, want %q", got, text)
	}
}

func TestSendMessageGivesUpAfterFourAttempts(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newGraphClient(t, server)
	if _, err := client.SendMessage(context.Background(), "ig-1", "tok", "igsid-1", "hello"); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}

func TestSendMessageDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid recipient"}}`))
	}))
	defer server.Close()

	client := newGraphClient(t, server)
	if _, err := client.SendMessage(context.Background(), "ig-1", "tok", "igsid-1", "hello"); err == nil {
		t.Fatalf("expected error for 400")
	}
	if calls != 1 {
		t.Fatalf("4xx must not retry, got %d calls", calls)
	}
}

func TestSendMessageFallsBackOnTransportError(t *testing.T) {
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message_id":"mid-fb"}`))
	}))
	defer fallback.Close()

	// A closed server produces a connection failure on the primary host.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	client, err := NewHTTPGraphClient(http.DefaultClient, deadURL, "app-1", "secret", "", nil)
	if err != nil {
		t.Fatalf("NewHTTPGraphClient returned error: %v", err)
	}
	client.sleep = func(time.Duration) {}
	client.fallbackHost = fallback.URL

	mid, err := client.SendMessage(context.Background(), "ig-1", "tok", "igsid-1", "hello")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if mid != "mid-fb" {
		t.Fatalf("expected fallback delivery, got %q", mid)
	}
}
