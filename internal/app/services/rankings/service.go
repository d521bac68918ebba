// Package rankings captures competitor rank snapshots for local search
// keywords.
package rankings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localpulse/platform/internal/app/domain/competitor"
	"github.com/localpulse/platform/internal/app/places"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/pkg/logger"
)

// ErrForbidden is returned when a location belongs to a different tenant.
var ErrForbidden = errors.New("location does not belong to tenant")

// scrapeFloor triggers the scraper fallback when the primary search returns
// fewer results.
const scrapeFloor = 10

const enrichWorkers = 4

// Service computes and stores competitor rank snapshots.
type Service struct {
	store     storage.RankSnapshotStore
	locations storage.LocationStore
	places    places.Searcher
	scraper   Scraper
	log       *logger.Logger
}

// New constructs a ranking service. scraper is optional; when nil, thin
// search results are persisted as-is.
func New(store storage.RankSnapshotStore, locations storage.LocationStore, searcher places.Searcher, scraper Scraper, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("rankings")
	}
	return &Service{
		store:     store,
		locations: locations,
		places:    searcher,
		scraper:   scraper,
		log:       log,
	}
}

// Refresh searches the keyword around the location, ranks the results and
// persists a snapshot. The subject's position is 0 when it does not appear.
func (s *Service) Refresh(ctx context.Context, tenantID, locationID, keyword string) (competitor.Snapshot, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return competitor.Snapshot{}, fmt.Errorf("keyword is required")
	}

	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return competitor.Snapshot{}, err
	}
	if loc.TenantID != tenantID {
		return competitor.Snapshot{}, ErrForbidden
	}
	if loc.PlaceID == "" {
		return competitor.Snapshot{}, fmt.Errorf("location %s is not bound to a place", locationID)
	}
	if s.places == nil {
		return competitor.Snapshot{}, fmt.Errorf("places search is not configured")
	}

	results, err := s.places.TextSearch(ctx, keyword, loc.Latitude, loc.Longitude)
	if err != nil {
		return competitor.Snapshot{}, fmt.Errorf("keyword search: %w", err)
	}

	entries := make([]competitor.Entry, 0, len(results))
	for _, p := range results {
		entries = append(entries, entryFromPlace(p))
	}
	source := "places"

	if len(entries) < scrapeFloor && s.scraper != nil {
		scraped, err := s.scraper.Scrape(ctx, keyword, loc.Latitude, loc.Longitude, scrapeFloor*2)
		if err != nil {
			s.log.WithError(err).WithField("keyword", keyword).Warn("scrape fallback failed")
		} else {
			entries = mergeEntries(entries, scraped)
			source = "places+apify"
		}
	}

	s.enrich(ctx, entries)

	for i := range entries {
		entries[i].DistanceMeters = haversineMeters(loc.Latitude, loc.Longitude, entries[i].Latitude, entries[i].Longitude)
		entries[i].Position = i + 1
	}

	position := 0
	for _, e := range entries {
		if e.PlaceID == loc.PlaceID {
			position = e.Position
			break
		}
	}

	snap := competitor.Snapshot{
		LocationID:   locationID,
		Keyword:      keyword,
		Position:     position,
		TotalResults: len(entries),
		Source:       source,
		Entries:      entries,
		TakenAt:      time.Now().UTC(),
	}
	snap, err = s.store.CreateRankSnapshot(ctx, snap)
	if err != nil {
		return competitor.Snapshot{}, err
	}
	s.log.WithField("location_id", locationID).
		WithField("keyword", keyword).
		WithField("position", position).
		WithField("results", len(entries)).
		Info("rank snapshot captured")
	return snap, nil
}

// History lists snapshots for a location/keyword pair, newest first.
func (s *Service) History(ctx context.Context, tenantID, locationID, keyword string) ([]competitor.Snapshot, error) {
	if err := s.checkOwnership(ctx, tenantID, locationID); err != nil {
		return nil, err
	}
	return s.store.ListRankSnapshots(ctx, locationID, keyword)
}

// Latest returns the most recent snapshot for a location/keyword pair.
func (s *Service) Latest(ctx context.Context, tenantID, locationID, keyword string) (competitor.Snapshot, error) {
	if err := s.checkOwnership(ctx, tenantID, locationID); err != nil {
		return competitor.Snapshot{}, err
	}
	return s.store.LatestRankSnapshot(ctx, locationID, keyword)
}

func (s *Service) checkOwnership(ctx context.Context, tenantID, locationID string) error {
	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if loc.TenantID != tenantID {
		return ErrForbidden
	}
	return nil
}

// enrich fills missing details and photo URLs with a bounded worker fan-out.
func (s *Service) enrich(ctx context.Context, entries []competitor.Entry) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < enrichWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s.enrichEntry(ctx, &entries[i])
			}
		}()
	}
	for i := range entries {
		if entries[i].Rating == 0 || entries[i].PhotoURL == "" {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()
}

func (s *Service) enrichEntry(ctx context.Context, entry *competitor.Entry) {
	if entry.PlaceID == "" {
		return
	}
	place, err := s.places.Details(ctx, entry.PlaceID)
	if err != nil {
		s.log.WithError(err).WithField("place_id", entry.PlaceID).Debug("detail enrichment failed")
		return
	}
	if entry.Rating == 0 {
		entry.Rating = place.Rating
		entry.ReviewCount = place.ReviewCount
	}
	if entry.Latitude == 0 && entry.Longitude == 0 {
		entry.Latitude = place.Latitude
		entry.Longitude = place.Longitude
	}
	if entry.PhotoURL == "" && place.PhotoRef != "" {
		entry.PhotoURL = s.places.PhotoURL(place.PhotoRef, 400)
	}
}

func entryFromPlace(p places.Place) competitor.Entry {
	return competitor.Entry{
		PlaceID:     p.PlaceID,
		Name:        p.Name,
		Address:     p.Address,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
	}
}

// mergeEntries appends scraped entries not already present, keyed by PlaceID.
func mergeEntries(primary, scraped []competitor.Entry) []competitor.Entry {
	seen := make(map[string]bool, len(primary))
	for _, e := range primary {
		seen[e.PlaceID] = true
	}
	merged := primary
	for _, e := range scraped {
		if e.PlaceID == "" || seen[e.PlaceID] {
			continue
		}
		seen[e.PlaceID] = true
		merged = append(merged, e)
	}
	// Scraped entries carry no search rank, so order the merged tail by
	// review-weighted rating to keep positions stable.
	tail := merged[len(primary):]
	sort.SliceStable(tail, func(i, j int) bool {
		return tail[i].Rating*float64(tail[i].ReviewCount) > tail[j].Rating*float64(tail[j].ReviewCount)
	})
	return merged
}

const earthRadiusMeters = 6371000

// haversineMeters computes the great-circle distance between two coordinates.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
