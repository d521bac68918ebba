package locations

import (
	"context"
	"errors"
	"testing"

	"github.com/localpulse/platform/internal/app/places"
	"github.com/localpulse/platform/internal/app/storage/memory"
)

type fakeSearcher struct {
	results []places.Place
	queries []string
}

func (f *fakeSearcher) TextSearch(_ context.Context, query string, _, _ float64) ([]places.Place, error) {
	f.queries = append(f.queries, query)
	return f.results, nil
}

func (f *fakeSearcher) Details(_ context.Context, placeID string) (places.Place, error) {
	for _, p := range f.results {
		if p.PlaceID == placeID {
			return p, nil
		}
	}
	return places.Place{}, errors.New("not found")
}

func (f *fakeSearcher) PhotoURL(string, int) string { return "" }

func TestCreateValidatesInput(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "", CreateInput{Name: "Cafe", Address: "1 Main St"}); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
	if _, err := svc.Create(ctx, "t1", CreateInput{Address: "1 Main St"}); err == nil {
		t.Fatalf("expected error for missing name")
	}

	loc, err := svc.Create(ctx, "t1", CreateInput{Name: "  Cafe  ", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if loc.Name != "Cafe" || loc.TenantID != "t1" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestGetEnforcesTenantScope(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	loc, err := svc.Create(ctx, "t1", CreateInput{Name: "Cafe", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Get(ctx, "t2", loc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, "t2", loc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if _, err := svc.Get(ctx, "t1", loc.ID); err != nil {
		t.Fatalf("owner Get returned error: %v", err)
	}
}

func TestConnectDefaultsQueryToNameAndAddress(t *testing.T) {
	searcher := &fakeSearcher{results: []places.Place{{PlaceID: "p1", Name: "Cafe"}}}
	svc := New(memory.New(), searcher, nil)
	ctx := context.Background()

	loc, err := svc.Create(ctx, "t1", CreateInput{Name: "Cafe", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	candidates, err := svc.Connect(ctx, "t1", loc.ID, "")
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].PlaceID != "p1" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "Cafe 1 Main St" {
		t.Fatalf("unexpected query: %v", searcher.queries)
	}
}

func TestBindValidatesGBPResourceName(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	loc, err := svc.Create(ctx, "t1", CreateInput{Name: "Cafe", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.Bind(ctx, "t1", loc.ID, BindInput{
		PlaceID:       "p1",
		GBPAccountID:  "accounts/123",
		GBPLocationID: "not-a-resource",
	})
	if err == nil {
		t.Fatalf("expected error for malformed gbp location")
	}

	bound, err := svc.Bind(ctx, "t1", loc.ID, BindInput{
		PlaceID:       "p1",
		GBPAccountID:  "accounts/123",
		GBPLocationID: "locations/456",
		ReviewSync:    true,
	})
	if err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if bound.PlaceID != "p1" || !bound.GBPConnected || !bound.ReviewSyncEnabled {
		t.Fatalf("unexpected binding: %+v", bound)
	}
	if bound.GBPAccountID != "accounts/123" || bound.GBPLocationID != "accounts/123/locations/456" {
		t.Fatalf("unexpected gbp resources: %+v", bound)
	}
}

func TestBindWithFullResourceName(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	loc, err := svc.Create(ctx, "t1", CreateInput{Name: "Cafe", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	bound, err := svc.Bind(ctx, "t1", loc.ID, BindInput{
		PlaceID:       "p1",
		GBPLocationID: "accounts/123/locations/456",
	})
	if err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if bound.GBPAccountID != "accounts/123" {
		t.Fatalf("expected account derived from resource, got %q", bound.GBPAccountID)
	}
}

func TestBindPlaceIDOnly(t *testing.T) {
	searcher := &fakeSearcher{results: []places.Place{{PlaceID: "p1", Latitude: 37.7, Longitude: -122.4}}}
	svc := New(memory.New(), searcher, nil)
	ctx := context.Background()

	loc, err := svc.Create(ctx, "t1", CreateInput{Name: "Cafe", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	bound, err := svc.Bind(ctx, "t1", loc.ID, BindInput{PlaceID: "p1"})
	if err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if bound.GBPConnected {
		t.Fatalf("expected gbp disconnected without resource names")
	}
	if bound.Latitude != 37.7 || bound.Longitude != -122.4 {
		t.Fatalf("expected coordinates filled from place details: %+v", bound)
	}
}
