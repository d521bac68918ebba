package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestTextSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/textsearch/json") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatalf("missing api key")
		}
		w.Write([]byte(`{"status":"OK","results":[{"place_id":"p1","name":"Blue Bottle","formatted_address":"1 Main St","rating":4.5,"user_ratings_total":120,"geometry":{"location":{"lat":37.7,"lng":-122.4}},"photos":[{"photo_reference":"ref1"}]}]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.Client(), server.URL, "test-key", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	results, err := client.TextSearch(context.Background(), "coffee", 37.7, -122.4)
	if err != nil {
		t.Fatalf("TextSearch returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.PlaceID != "p1" || got.Name != "Blue Bottle" || got.ReviewCount != 120 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.Latitude != 37.7 || got.Longitude != -122.4 {
		t.Fatalf("unexpected coordinates: %+v", got)
	}
	if got.PhotoRef != "ref1" {
		t.Fatalf("expected photo ref, got %q", got.PhotoRef)
	}
}

func TestTextSearchRejectsEmptyQuery(t *testing.T) {
	client, err := NewClient(nil, "http://localhost", "test-key", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.TextSearch(context.Background(), "  ", 0, 0); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestDetailsUsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"status":"OK","result":{"place_id":"p1","name":"Blue Bottle","formatted_address":"1 Main St","rating":4.5,"user_ratings_total":120,"geometry":{"location":{"lat":37.7,"lng":-122.4}}}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.Client(), server.URL, "test-key", NewMemoryCache(), nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx := context.Background()
	first, err := client.Details(ctx, "p1")
	if err != nil {
		t.Fatalf("Details returned error: %v", err)
	}
	second, err := client.Details(ctx, "p1")
	if err != nil {
		t.Fatalf("second Details returned error: %v", err)
	}
	if first != second {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestDetailsPropagatesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"NOT_FOUND"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.Client(), server.URL, "test-key", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Details(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for NOT_FOUND status")
	}
}

func TestPhotoURL(t *testing.T) {
	client, err := NewClient(nil, "http://places.local", "test-key", nil, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	got := client.PhotoURL("ref1", 0)
	if !strings.Contains(got, "photo_reference=ref1") || !strings.Contains(got, "maxwidth=400") {
		t.Fatalf("unexpected photo url: %s", got)
	}
	if client.PhotoURL("", 100) != "" {
		t.Fatalf("expected empty url for empty ref")
	}
}
